package stripe

import "sync/atomic"

// Session is the capture buffer shared between the edge callbacks (the only
// writer) and the foreground read. The reader must not call Snapshot until
// the card-present line has dropped, which is when the writer stops.
type Session struct {
	bits    [MaxBits]bool
	length  atomic.Int32
	level   atomic.Bool
	dropped atomic.Uint32
}

// Reset may be called while edges are still arriving: an append that
// straddles the reset is discarded rather than landing past the new length.
func (s *Session) Reset() {
	s.length.Store(0)
	s.level.Store(false)
	s.dropped.Store(0)
}

// OnData is invoked on every change of the data line.
func (s *Session) OnData() {
	s.level.Store(!s.level.Load())
}

// OnClock is invoked on every clock strobe and latches the current data level.
func (s *Session) OnClock() {
	s.Append(s.level.Load())
}

// Append stores one bit, or drops it silently if the buffer is full.
func (s *Session) Append(bit bool) {
	n := s.length.Load()
	if int(n) >= len(s.bits) {
		s.dropped.Add(1)
		return
	}
	s.bits[n] = bit
	s.length.CompareAndSwap(n, n+1)
}

func (s *Session) Len() int {
	return int(s.length.Load())
}

// Dropped counts the bits discarded because the buffer was full.
func (s *Session) Dropped() int {
	return int(s.dropped.Load())
}

// Snapshot returns a view onto the captured bits. The view aliases the
// session storage; Capture.Reverse flips the session in place.
func (s *Session) Snapshot() Capture {
	return Capture{bits: s.bits[:s.Len()]}
}

// Capture is a fixed-length, read-mostly view of captured bits.
type Capture struct {
	bits []bool
}

// MakeCapture wraps an existing bit slice without copying it.
func MakeCapture(bits []bool) Capture {
	return Capture{bits: bits}
}

func (c Capture) Len() int {
	return len(c.bits)
}

func (c Capture) At(i int) bool {
	if i < 0 || i >= len(c.bits) {
		panic("capture index out of range")
	}
	return c.bits[i]
}

// Bits exposes the underlying storage.
func (c Capture) Bits() []bool {
	return c.bits
}

// Reverse swaps bit i with bit Len()-1-i, in place.
func (c Capture) Reverse() {
	for i, j := 0, len(c.bits)-1; i < j; i, j = i+1, j-1 {
		c.bits[i], c.bits[j] = c.bits[j], c.bits[i]
	}
}

func (c Capture) bit(i int) uint8 {
	if c.bits[i] {
		return 1
	}
	return 0
}
