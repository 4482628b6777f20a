package stripe

import "testing"

func TestNumericTable(t *testing.T) {
	count := 0
	for symbol := 0; symbol < 32; symbol++ {
		ch, ok := Numeric.Char(uint8(symbol))
		if !ok {
			continue
		}
		count++
		if !OddParity(uint8(symbol)) {
			t.Errorf("table entry %05b for %q has even parity", symbol, ch)
		}
		back, ok := Numeric.Symbol(ch)
		if !ok || back != uint8(symbol) {
			t.Errorf("character %q maps back to %05b instead of %05b", ch, back, symbol)
		}
	}
	if count != 16 {
		t.Fatalf("expected 16 numeric symbols, found %d", count)
	}
	if Numeric.StartSentinel != 0x1a {
		t.Fatalf("unexpected numeric start sentinel %05b", Numeric.StartSentinel)
	}
	if sym, _ := Numeric.Symbol(';'); sym != Numeric.StartSentinel {
		t.Fatalf("start character encodes to %05b", sym)
	}
	if _, ok := Numeric.Symbol('A'); ok {
		t.Fatal("letters should not be encodable in numeric format")
	}
}

func TestAlphanumericRoundTrip(t *testing.T) {
	for ch := byte(0x20); ch <= 0x5f; ch++ {
		symbol, ok := Alphanumeric.Symbol(ch)
		if !ok {
			t.Fatalf("cannot encode %q", ch)
		}
		if !OddParity(symbol) {
			t.Errorf("symbol for %q has even parity", ch)
		}
		back, ok := Alphanumeric.Char(symbol)
		if !ok || back != ch {
			t.Errorf("symbol %07b decoded to %q instead of %q", symbol, back, ch)
		}
	}
	if sym, _ := Alphanumeric.Symbol('%'); sym != Alphanumeric.StartSentinel {
		t.Fatalf("start character encodes to %07b", sym)
	}
	if _, ok := Alphanumeric.Symbol('a'); ok {
		t.Fatal("lowercase should not be encodable")
	}
}

func TestFormatLookup(t *testing.T) {
	expect := map[int]*Format{1: Alphanumeric, 2: Numeric, 3: Numeric}
	for track, f := range expect {
		got, err := ForTrack(track)
		if err != nil {
			t.Fatal(err)
		}
		if got != f {
			t.Errorf("track %d: got %v, expected %v", track, got, f)
		}
	}
	if _, err := ForTrack(4); err == nil {
		t.Error("expected error for track 4")
	}
	if f, err := ParseFormat("alpha"); err != nil || f != Alphanumeric {
		t.Errorf("unexpected result for alpha: %v %v", f, err)
	}
	if _, err := ParseFormat("ebcdic"); err == nil {
		t.Error("expected error for unknown format")
	}
}
