package stripe

import "fmt"

// Demodulate decodes symbols starting at bit offset start into dst, until a
// null symbol or the end of the capture. A trailing partial symbol is
// ignored. The character count is returned; dst[count] is set to NUL when
// there is room for it.
func Demodulate(c Capture, start int, f *Format, dst []byte) (int, error) {
	if start < 0 || start > c.Len() {
		panic("invalid start offset")
	}
	mask := f.mask()
	var accum uint8
	count := 0
	filled := 0
	for i := start; i < c.Len(); i++ {
		accum = (accum<<1 | c.bit(i)) & mask
		filled++
		if filled < f.Width {
			continue
		}
		if accum == 0 {
			break
		}
		offset := i - (f.Width - 1)
		if !OddParity(accum) {
			return count, fmt.Errorf("%w: symbol %0*b at bit %d", ErrSymbolParity, f.Width, accum, offset)
		}
		ch, ok := f.Char(accum)
		if !ok {
			return count, fmt.Errorf("%w: invalid symbol %0*b at bit %d", ErrSymbolParity, f.Width, accum, offset)
		}
		if count >= len(dst) {
			return count, fmt.Errorf("%w: more than %d characters", ErrOutputBufferTooSmall, len(dst))
		}
		dst[count] = ch
		count++
		accum, filled = 0, 0
	}
	if count < len(dst) {
		dst[count] = 0
	}
	return count, nil
}
