package stripe

// Symbol describes one demodulated symbol for diagnostics.
type Symbol struct {
	Offset   int
	Value    uint8
	Char     byte // zero when the symbol has no mapping
	ParityOK bool
}

func (s Symbol) Null() bool {
	return s.Value == 0
}

// Inspect lists every complete symbol from the first start sentinel to the
// end of the capture, including the null symbols after the frame. Unlike
// Demodulate it never stops early, and it never modifies the capture.
func Inspect(c Capture, f *Format) []Symbol {
	start, ok := FindSentinel(c, f.StartSentinel, f.Width)
	if !ok {
		return nil
	}
	var out []Symbol
	for offset := start; offset+f.Width <= c.Len(); offset += f.Width {
		var value uint8
		for i := 0; i < f.Width; i++ {
			value = value<<1 | c.bit(offset+i)
		}
		s := Symbol{Offset: offset, Value: value, ParityOK: OddParity(value)}
		if !s.Null() {
			if ch, ok := f.Char(value); ok {
				s.Char = ch
			}
		}
		out = append(out, s)
	}
	return out
}
