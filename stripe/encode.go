package stripe

import "fmt"

// AppendSymbol appends the bits of one symbol in the order they pass the head.
func AppendSymbol(out []bool, symbol uint8, width int) []bool {
	for i := width - 1; i >= 0; i-- {
		out = append(out, symbol&(1<<i) != 0)
	}
	return out
}

// LRC computes the longitudinal redundancy character for a framed text:
// even parity down each data column, with its own odd parity bit.
func LRC(f *Format, text string) (uint8, error) {
	var columns uint8
	for i := 0; i < len(text); i++ {
		symbol, ok := f.Symbol(text[i])
		if !ok {
			return 0, fmt.Errorf("character %q cannot be encoded in %v format", text[i], f)
		}
		columns ^= symbol
	}
	// drop the parity column and refill it so the LRC symbol is itself odd
	lrc := columns &^ 1
	if !OddParity(lrc) {
		lrc |= 1
	}
	return lrc, nil
}

// Encode returns the bits of text followed by its LRC character. The text
// must include its own start and end sentinels.
func Encode(f *Format, text string) ([]bool, error) {
	lrc, err := LRC(f, text)
	if err != nil {
		return nil, err
	}
	out := make([]bool, 0, (len(text)+1)*f.Width)
	for i := 0; i < len(text); i++ {
		symbol, _ := f.Symbol(text[i])
		out = AppendSymbol(out, symbol, f.Width)
	}
	return AppendSymbol(out, lrc, f.Width), nil
}

// EncodeSwipe frames text with lead and trail clocking zeros, as a forward swipe would capture it.
func EncodeSwipe(f *Format, text string, lead, trail int) ([]bool, error) {
	frame, err := Encode(f, text)
	if err != nil {
		return nil, err
	}
	out := make([]bool, lead, lead+len(frame)+trail)
	out = append(out, frame...)
	return append(out, make([]bool, trail)...), nil
}

// ReverseBits returns a mirrored copy of bits, as a backward swipe would capture it.
func ReverseBits(bits []bool) []bool {
	out := make([]bool, len(bits))
	for i, bit := range bits {
		out[len(bits)-1-i] = bit
	}
	return out
}
