package stripe

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

type sample struct {
	format *Format
	framed string
}

var samples = []sample{
	{Numeric, ";123=?"},
	{Numeric, ";4111111111111111=2512101?"},
	{Numeric, ";0123456789:<=>?"},
	{Alphanumeric, "%B4111111111111111^DOE/JOHN^2512101?"},
}

func (s sample) payload() string {
	// drop the start sentinel; the LRC character is not part of the framed text
	return s.framed[1:]
}

func mustSwipe(t *testing.T, f *Format, framed string) []bool {
	bits, err := EncodeSwipe(f, framed, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	return bits
}

func isFrameError(err error) bool {
	return errors.Is(err, ErrSymbolParity) || errors.Is(err, ErrLongitudinalParity) || errors.Is(err, ErrMalformedTerminator)
}

func TestDecodeConcreteScenario(t *testing.T) {
	bits := mustSwipe(t, Numeric, ";123=?")
	dst := make([]byte, 16)
	rec, err := MakeDecoder(Numeric).Decode(MakeCapture(bits), dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.Chars) != "123=?" || len(rec.Chars) != 5 {
		t.Fatalf("decoded %q", rec.Chars)
	}
	if rec.Direction != DirectionForward {
		t.Errorf("expected forward direction, got %v", rec.Direction)
	}
	if rec.Start != 20 {
		t.Errorf("expected sentinel at bit 20, got %d", rec.Start)
	}
	if len(rec.Raw) != 7 || rec.Raw[0] != ';' || rec.Raw[5] != '?' {
		t.Errorf("unexpected raw run %q", rec.Raw)
	}
	if dst[5] != 0 {
		t.Error("expected output to be NUL terminated")
	}
}

func TestDecodeWrongTerminator(t *testing.T) {
	bits := mustSwipe(t, Numeric, ";123=>")
	_, err := Decode(MakeCapture(bits), Numeric)
	if !errors.Is(err, ErrMalformedTerminator) {
		t.Fatalf("expected malformed terminator, got %v", err)
	}
}

func TestDecodeBothDirections(t *testing.T) {
	for _, s := range samples {
		bits := mustSwipe(t, s.format, s.framed)

		rec, err := Decode(MakeCapture(bits), s.format)
		if err != nil {
			t.Fatalf("%q forward: %v", s.framed, err)
		}
		if string(rec.Chars) != s.payload() || rec.Direction != DirectionForward {
			t.Errorf("%q forward: decoded %q direction %v", s.framed, rec.Chars, rec.Direction)
		}

		rec, err = Decode(MakeCapture(ReverseBits(bits)), s.format)
		if err != nil {
			t.Fatalf("%q backward: %v", s.framed, err)
		}
		if string(rec.Chars) != s.payload() || rec.Direction != DirectionBackward {
			t.Errorf("%q backward: decoded %q direction %v", s.framed, rec.Chars, rec.Direction)
		}
	}
}

func TestDecodeRandomDigits(t *testing.T) {
	r := rand.New(rand.NewSource(123))
	for iter := 0; iter < 200; iter++ {
		digits := make([]byte, 1+r.Intn(37))
		for i := range digits {
			digits[i] = byte('0' + r.Intn(10))
		}
		framed := ";" + string(digits) + "?"
		bits, err := EncodeSwipe(Numeric, framed, r.Intn(40), 10+r.Intn(40))
		if err != nil {
			t.Fatal(err)
		}
		rec, err := Decode(MakeCapture(bits), Numeric)
		if err != nil {
			t.Fatalf("%q: %v", framed, err)
		}
		if string(rec.Chars) != framed[1:] || rec.Direction != DirectionForward {
			t.Fatalf("%q: decoded %q direction %v", framed, rec.Chars, rec.Direction)
		}
	}
}

func TestDecodeIdempotent(t *testing.T) {
	bits := ReverseBits(mustSwipe(t, Numeric, ";4111111111111111=2512101?"))
	orig := append([]bool{}, bits...)
	c := MakeCapture(bits)
	d := MakeDecoder(Numeric)

	first, err := d.Decode(c, make([]byte, 64))
	if err != nil {
		t.Fatal(err)
	}
	firstChars := string(first.Chars)
	for i := range bits {
		if bits[i] != orig[i] {
			t.Fatal("decode left the capture reversed")
		}
	}
	second, err := d.Decode(c, make([]byte, 64))
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Chars) != firstChars || second.Direction != first.Direction || second.Start != first.Start {
		t.Fatalf("second decode differs: %q/%v vs %q/%v", second.Chars, second.Direction, firstChars, first.Direction)
	}

	bad := MakeCapture(make([]bool, 100))
	_, err1 := d.Decode(bad, make([]byte, 64))
	_, err2 := d.Decode(bad, make([]byte, 64))
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Fatalf("failed decodes differ: %v / %v", err1, err2)
	}
}

func TestDecodeSingleBitFlips(t *testing.T) {
	for _, s := range samples {
		bits := mustSwipe(t, s.format, s.framed)
		// everything after the start sentinel up to the end of the LRC character
		first := 20 + s.format.Width
		last := 20 + (len(s.framed)+1)*s.format.Width
		for i := first; i < last; i++ {
			flipped := append([]bool{}, bits...)
			flipped[i] = !flipped[i]
			rec, err := Decode(MakeCapture(flipped), s.format)
			if err == nil {
				t.Fatalf("%q: flip at bit %d decoded silently as %q", s.framed, i, rec.Chars)
			}
			if !isFrameError(err) {
				t.Fatalf("%q: flip at bit %d gave unexpected error %v", s.framed, i, err)
			}
			if rec.Direction != DirectionUnknown {
				t.Errorf("expected unknown direction after failure, got %v", rec.Direction)
			}
		}
	}
}

func TestDecodeLRCCatchesDoubleFlip(t *testing.T) {
	bits := mustSwipe(t, Numeric, ";123=?")
	// two flips inside the '1' symbol keep its parity but break two columns
	bits[25] = !bits[25]
	bits[26] = !bits[26]
	_, err := Decode(MakeCapture(bits), Numeric)
	if !errors.Is(err, ErrLongitudinalParity) {
		t.Fatalf("expected LRC failure, got %v", err)
	}

	bits = mustSwipe(t, Alphanumeric, samples[3].framed)
	bits[27] = !bits[27]
	bits[28] = !bits[28]
	_, err = Decode(MakeCapture(bits), Alphanumeric)
	if !errors.Is(err, ErrLongitudinalParity) {
		t.Fatalf("expected LRC failure, got %v", err)
	}
}

func TestDecodeNoSentinel(t *testing.T) {
	for _, fill := range []bool{false, true} {
		bits := make([]bool, 400)
		for i := range bits {
			bits[i] = fill
		}
		for _, f := range []*Format{Numeric, Alphanumeric} {
			_, err := Decode(MakeCapture(bits), f)
			if !errors.Is(err, ErrStartSentinelNotFound) {
				t.Fatalf("expected missing sentinel, got %v", err)
			}
			if isFrameError(err) {
				t.Fatalf("unexpected frame error %v", err)
			}
		}
	}
}

func TestDecodeOutputTooSmall(t *testing.T) {
	bits := mustSwipe(t, Numeric, ";123=?")
	backing := []byte{0xaa, 0xaa, 0xaa, 0xbb, 0xbb, 0xbb}
	_, err := MakeDecoder(Numeric).Decode(MakeCapture(bits), backing[:3])
	if !errors.Is(err, ErrOutputBufferTooSmall) {
		t.Fatalf("expected buffer too small, got %v", err)
	}
	if !bytes.Equal(backing, []byte{0xaa, 0xaa, 0xaa, 0xbb, 0xbb, 0xbb}) {
		t.Fatalf("output written on failure: %x", backing)
	}

	rec, err := MakeDecoder(Numeric).Decode(MakeCapture(bits), make([]byte, 5))
	if err != nil {
		t.Fatalf("exact fit failed: %v", err)
	}
	if string(rec.Chars) != "123=?" {
		t.Fatalf("decoded %q", rec.Chars)
	}
}

func TestDecodeShortCapture(t *testing.T) {
	// a start sentinel followed by less than one symbol
	bits := []bool{false, true, true, false, true, false, true, true}
	_, err := Decode(MakeCapture(bits), Numeric)
	if err == nil {
		t.Fatal("expected an error for a truncated capture")
	}
	for n := 0; n < 5; n++ {
		_, err := Decode(MakeCapture(make([]bool, n)), Numeric)
		if !errors.Is(err, ErrStartSentinelNotFound) {
			t.Fatalf("length %d: expected missing sentinel, got %v", n, err)
		}
	}
}

func TestDecodeAfterOverflow(t *testing.T) {
	frame, err := Encode(Numeric, ";123=?")
	if err != nil {
		t.Fatal(err)
	}

	// the whole frame arrives after the buffer is full
	var s Session
	for i := 0; i < 900; i++ {
		s.Append(false)
	}
	for _, bit := range frame {
		s.Append(bit)
	}
	if s.Dropped() != 100+len(frame) {
		t.Fatalf("unexpected dropped count %d", s.Dropped())
	}
	_, err = Decode(s.Snapshot(), Numeric)
	if !errors.Is(err, ErrStartSentinelNotFound) {
		t.Fatalf("expected missing sentinel, got %v", err)
	}

	// the frame is cut off part way through
	s.Reset()
	for i := 0; i < 780; i++ {
		s.Append(false)
	}
	for _, bit := range frame {
		s.Append(bit)
	}
	_, err = Decode(s.Snapshot(), Numeric)
	if !errors.Is(err, ErrMalformedTerminator) {
		t.Fatalf("expected malformed terminator, got %v", err)
	}
}
