package stripe

import "fmt"

// CheckTerminator verifies that the end sentinel sits just before the trailing LRC character.
func CheckTerminator(run []byte, f *Format) error {
	if len(run) < 2 {
		return fmt.Errorf("%w: only %d characters decoded", ErrMalformedTerminator, len(run))
	}
	if got := run[len(run)-2]; got != f.EndChar {
		return fmt.Errorf("%w: found %q instead of %q", ErrMalformedTerminator, got, f.EndChar)
	}
	return nil
}

// CheckLRC verifies even parity down every data column of count symbols
// starting at bit offset start. The parity column is not checked.
func CheckLRC(c Capture, start, count int, f *Format) error {
	length := count * f.Width
	if start < 0 || start+length > c.Len() {
		panic("decoded run extends past the capture")
	}
	for col := 0; col < f.ParityBit(); col++ {
		ones := 0
		for j := col; j < length; j += f.Width {
			if c.At(start + j) {
				ones++
			}
		}
		if ones%2 != 0 {
			return fmt.Errorf("%w: column %d has odd parity", ErrLongitudinalParity, col)
		}
	}
	return nil
}
