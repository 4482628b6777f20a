package swipe

import (
	"errors"
	"testing"
	"time"

	"github.com/celskeggs/magstripe/reader"
	"github.com/celskeggs/magstripe/sim/component"
	"github.com/celskeggs/magstripe/stripe"
)

func setup(t *testing.T, seed int64, f *stripe.Format) (*component.SimController, *Device, *reader.Reader) {
	sim := component.MakeSimControllerSeeded(seed)
	dev := MakeDevice(sim, DefaultConfig())
	r := reader.New(dev)
	if err := r.Begin(f); err != nil {
		t.Fatal(err)
	}
	return sim, dev, r
}

func TestSimulatedSwipes(t *testing.T) {
	cases := []struct {
		format *stripe.Format
		framed string
	}{
		{stripe.Numeric, ";123=?"},
		{stripe.Numeric, ";4111111111111111=2512101?"},
		{stripe.Alphanumeric, "%B4111111111111111^DOE/JOHN^2512101?"},
	}
	for i, c := range cases {
		sim, dev, r := setup(t, int64(100+i), c.format)
		bits, err := stripe.EncodeSwipe(c.format, c.framed, 30, 30)
		if err != nil {
			t.Fatal(err)
		}
		for _, backward := range []bool{false, true} {
			input := bits
			expected := stripe.DirectionForward
			if backward {
				input = stripe.ReverseBits(bits)
				expected = stripe.DirectionBackward
			}
			dst := make([]byte, 64)
			n, err := ReadSwipe(sim, dev, r, input, dst, time.Millisecond)
			if err != nil {
				t.Fatalf("%q backward=%v: %v", c.framed, backward, err)
			}
			if string(dst[:n]) != c.framed[1:] {
				t.Errorf("%q backward=%v: read %q", c.framed, backward, dst[:n])
			}
			if r.Direction() != expected {
				t.Errorf("%q: expected %v, got %v", c.framed, expected, r.Direction())
			}
			if dev.CardPresent() {
				t.Error("card should have left the reader")
			}
		}
	}
}

func TestSimulatedGarbage(t *testing.T) {
	sim, dev, r := setup(t, 7, stripe.Numeric)
	noise := make([]bool, 300)
	for i := range noise {
		// never contains the start sentinel: no two consecutive ones
		noise[i] = i%3 == 0
	}
	_, err := ReadSwipe(sim, dev, r, noise, make([]byte, 16), time.Millisecond)
	if !errors.Is(err, stripe.ErrStartSentinelNotFound) {
		t.Fatalf("expected missing sentinel, got %v", err)
	}
	if r.State() != reader.StateFailure {
		t.Fatalf("unexpected state %v", r.State())
	}
}

func TestDeviceEvents(t *testing.T) {
	sim := component.MakeSimControllerSeeded(9)
	dev := MakeDevice(sim, DefaultConfig())
	changes := 0
	dev.Subscribe(func() {
		changes++
	})
	var clocks, datas int
	if err := dev.Attach(func() { datas++ }, func() { clocks++ }); err != nil {
		t.Fatal(err)
	}
	finished := false
	if err := dev.Swipe([]bool{true, true, false, true}, func() { finished = true }); err != nil {
		t.Fatal(err)
	}
	if !dev.CardPresent() {
		t.Fatal("card should be present as soon as the swipe starts")
	}
	if err := dev.Swipe(nil, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	if !sim.RunUntilIdle(time.Second) {
		t.Fatal("swipe did not finish")
	}
	if !finished || dev.CardPresent() {
		t.Fatal("swipe did not complete")
	}
	if clocks != 4 || datas != 3 {
		t.Fatalf("expected 4 clocks and 3 data edges, got %d and %d", clocks, datas)
	}
	if changes != 2 {
		t.Fatalf("expected 2 card-present events, got %d", changes)
	}
}

func TestReadSwipeFollowsCardEvents(t *testing.T) {
	sim, dev, r := setup(t, 11, stripe.Numeric)
	bits, err := stripe.EncodeSwipe(stripe.Numeric, ";123=?", 30, 30)
	if err != nil {
		t.Fatal(err)
	}
	// the periodic poll never comes round during the swipe, so only the
	// card-present events can drive the reader
	dst := make([]byte, 16)
	n, err := ReadSwipe(sim, dev, r, bits, dst, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if string(dst[:n]) != "123=?" || r.State() != reader.StateSuccess {
		t.Fatalf("read %q in state %v", dst[:n], r.State())
	}
	if sim.Now().Since(0) > dev.Duration(len(bits)) {
		t.Fatalf("read finished at %v, after the card left", sim.Now())
	}
	if pending := sim.PendingTimers(); len(pending) != 0 {
		t.Fatalf("timers left behind: %v", pending)
	}
}
