package stripe

import (
	"math/rand"
	"testing"
)

func TestSessionEdges(t *testing.T) {
	var s Session
	r := rand.New(rand.NewSource(345))
	expected := make([]bool, 300)
	level := false
	for i := range expected {
		expected[i] = r.Intn(2) == 1
		if expected[i] != level {
			s.OnData()
			level = expected[i]
		}
		s.OnClock()
	}
	c := s.Snapshot()
	if c.Len() != len(expected) {
		t.Fatalf("captured %d bits instead of %d", c.Len(), len(expected))
	}
	for i, bit := range expected {
		if c.At(i) != bit {
			t.Fatalf("mismatched bit %d", i)
		}
	}

	s.Reset()
	if s.Len() != 0 || s.Snapshot().Len() != 0 {
		t.Fatal("reset did not clear the session")
	}
	// the data level restarts at zero after a reset
	s.OnClock()
	if s.Snapshot().At(0) {
		t.Fatal("expected a zero bit after reset")
	}
}

func TestSessionOverflow(t *testing.T) {
	var s Session
	for i := 0; i < MaxBits+37; i++ {
		s.Append(i%3 == 0)
	}
	if s.Len() != MaxBits {
		t.Fatalf("expected length capped at %d, got %d", MaxBits, s.Len())
	}
	if s.Dropped() != 37 {
		t.Fatalf("expected 37 dropped bits, got %d", s.Dropped())
	}
	c := s.Snapshot()
	for i := 0; i < c.Len(); i++ {
		if c.At(i) != (i%3 == 0) {
			t.Fatalf("bit %d overwritten by overflow", i)
		}
	}
	s.Reset()
	if s.Dropped() != 0 {
		t.Fatal("reset did not clear the dropped counter")
	}
}

func TestCaptureReverse(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 8} {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = i%2 == 0 || i == n-1
		}
		orig := append([]bool{}, bits...)
		c := MakeCapture(bits)
		c.Reverse()
		for i := range bits {
			if bits[i] != orig[n-1-i] {
				t.Fatalf("length %d: bit %d not mirrored", n, i)
			}
		}
		c.Reverse()
		for i := range bits {
			if bits[i] != orig[i] {
				t.Fatalf("length %d: double reverse is not the identity", n)
			}
		}
	}
}

func TestCaptureAtOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range index")
		}
	}()
	MakeCapture(make([]bool, 4)).At(4)
}
