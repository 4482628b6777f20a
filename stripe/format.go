package stripe

import (
	"fmt"
	"math/bits"
)

// MaxBits is enough capture for any of the three ISO tracks.
const MaxBits = 800

// MaxChars bounds the decoded run for the narrowest symbol width.
const MaxChars = MaxBits / 5

// EndSentinel terminates the data portion of a frame in both formats.
const EndSentinel = '?'

// Format describes one stripe encoding. Only Numeric and Alphanumeric exist.
type Format struct {
	Name          string
	Width         int
	StartSentinel uint8 // symbol pattern, parity included
	StartChar     byte
	EndChar       byte

	toChar   func(symbol uint8) (byte, bool)
	fromChar func(ch byte) (uint8, bool)
}

func (f *Format) String() string {
	return f.Name
}

func (f *Format) mask() uint8 {
	return uint8(1<<f.Width) - 1
}

// ParityBit is the column index of the parity bit within a symbol, as the bits arrive.
func (f *Format) ParityBit() int {
	return f.Width - 1
}

// Char maps a symbol (parity included) to its output character.
func (f *Format) Char(symbol uint8) (byte, bool) {
	return f.toChar(symbol & f.mask())
}

// Symbol maps a character to its symbol with odd parity filled in.
func (f *Format) Symbol(ch byte) (uint8, bool) {
	return f.fromChar(ch)
}

// OddParity reports whether the symbol carries an odd number of one bits.
func OddParity(symbol uint8) bool {
	return bits.OnesCount8(symbol)%2 != 0
}

// numericTable is indexed by the 5-bit symbol as accumulated (first bit highest).
var numericTable = [32]byte{
	0x01: '0',
	0x02: '8',
	0x04: '4',
	0x07: '<',
	0x08: '2',
	0x0b: ':',
	0x0d: '6',
	0x0e: '>',
	0x10: '1',
	0x13: '9',
	0x15: '5',
	0x16: '=',
	0x19: '3',
	0x1a: ';',
	0x1c: '7',
	0x1f: '?',
}

var numericReverse = func() (out [128]uint8) {
	for symbol, ch := range numericTable {
		if ch != 0 {
			out[ch] = uint8(symbol)
		}
	}
	return out
}()

func numericChar(symbol uint8) (byte, bool) {
	ch := numericTable[symbol&0x1f]
	return ch, ch != 0
}

func numericSymbol(ch byte) (uint8, bool) {
	if ch >= 128 || numericReverse[ch] == 0 {
		return 0, false
	}
	return numericReverse[ch], true
}

// reverse6 mirrors the low six bits.
func reverse6(v uint8) uint8 {
	return bits.Reverse8(v) >> 2
}

func alphaChar(symbol uint8) (byte, bool) {
	return reverse6((symbol&0x7f)>>1) + 0x20, true
}

func alphaSymbol(ch byte) (uint8, bool) {
	if ch < 0x20 || ch > 0x5f {
		return 0, false
	}
	v := ch - 0x20
	symbol := reverse6(v) << 1
	if !OddParity(symbol) {
		symbol |= 1
	}
	return symbol, true
}

var (
	// Numeric is the 5-bit BCD encoding used on ISO tracks 2 and 3.
	Numeric = &Format{
		Name:          "numeric",
		Width:         5,
		StartSentinel: 0x1a,
		StartChar:     ';',
		EndChar:       EndSentinel,
		toChar:        numericChar,
		fromChar:      numericSymbol,
	}
	// Alphanumeric is the 7-bit six-bit-plus-parity encoding used on ISO track 1.
	Alphanumeric = &Format{
		Name:          "alphanumeric",
		Width:         7,
		StartSentinel: 0x51,
		StartChar:     '%',
		EndChar:       EndSentinel,
		toChar:        alphaChar,
		fromChar:      alphaSymbol,
	}
)

// ForTrack returns the format recorded on the given ISO track (1, 2 or 3).
func ForTrack(track int) (*Format, error) {
	switch track {
	case 1:
		return Alphanumeric, nil
	case 2, 3:
		return Numeric, nil
	default:
		return nil, fmt.Errorf("invalid track number: %d", track)
	}
}

// ParseFormat accepts a format name or a track number.
func ParseFormat(name string) (*Format, error) {
	switch name {
	case "numeric", "bcd", "2", "3":
		return Numeric, nil
	case "alphanumeric", "alpha", "sixbit", "1":
		return Alphanumeric, nil
	default:
		return nil, fmt.Errorf("unknown stripe format: %q", name)
	}
}
