package util

import (
	"fmt"
	"strings"
)

const BitsPerByte = 8

// PackBits packs bits least-significant first, padding the last byte with zeros.
func PackBits(bits []bool) []byte {
	output := make([]byte, (len(bits)+BitsPerByte-1)/BitsPerByte)
	for i, bit := range bits {
		if bit {
			output[i/BitsPerByte] |= 1 << (i % BitsPerByte)
		}
	}
	return output
}

// UnpackBits is the inverse of PackBits for the first count bits.
func UnpackBits(data []byte, count int) ([]bool, error) {
	if count < 0 || count > len(data)*BitsPerByte {
		return nil, fmt.Errorf("cannot unpack %d bits from %d bytes", count, len(data))
	}
	output := make([]bool, count)
	for i := range output {
		output[i] = data[i/BitsPerByte]&(1<<(i%BitsPerByte)) != 0
	}
	return output, nil
}

// ParseBits reads a string of '0' and '1' characters. Spaces and underscores are skipped.
func ParseBits(s string) ([]bool, error) {
	output := make([]bool, 0, len(s))
	for i, ch := range s {
		switch ch {
		case '0':
			output = append(output, false)
		case '1':
			output = append(output, true)
		case ' ', '_':
		default:
			return nil, fmt.Errorf("invalid bit character %q at position %d", ch, i)
		}
	}
	return output, nil
}

func StringBits0(data []bool) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, bit := range data {
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// StringBitsGrouped prints bits in groups of width, starting at offset, for symbol-aligned dumps.
func StringBitsGrouped(data []bool, offset, width int) string {
	if width < 1 {
		panic("invalid group width")
	}
	var groups []string
	if offset > len(data) {
		offset = len(data)
	}
	if offset > 0 {
		groups = append(groups, StringBits0(data[:offset]))
	}
	for i := offset; i < len(data); i += width {
		end := i + width
		if end > len(data) {
			end = len(data)
		}
		groups = append(groups, StringBits0(data[i:end]))
	}
	return strings.Join(groups, " ")
}
