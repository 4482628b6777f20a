package stripe

// FindSentinel scans once from the beginning of the capture and returns the
// offset of the first symbol-aligned occurrence of pattern.
func FindSentinel(c Capture, pattern uint8, width int) (int, bool) {
	if width < 1 || width > 8 {
		panic("invalid symbol width")
	}
	mask := uint8(1<<width) - 1
	var accum uint8
	for i := 0; i < c.Len(); i++ {
		accum = (accum<<1 | c.bit(i)) & mask
		// a match before width bits have arrived would be aligned before the start of the capture
		if i >= width-1 && accum == pattern {
			return i - (width - 1), true
		}
	}
	return -1, false
}
