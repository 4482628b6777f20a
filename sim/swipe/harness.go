package swipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/celskeggs/magstripe/reader"
	"github.com/celskeggs/magstripe/sim/component"
)

var ErrSwipeMissed = errors.New("reader never completed the swipe")

// ReadSwipe passes bits by the device and polls r until it reports a
// completed swipe. r is polled as soon as the card-present line changes and
// every pollEvery of virtual time in between. r must already have been
// started against dev.
func ReadSwipe(sim *component.SimController, dev *Device, r *reader.Reader, bits []bool, dst []byte, pollEvery time.Duration) (int, error) {
	if pollEvery <= 0 {
		panic("poll interval must be positive")
	}
	var (
		n          int
		err        error
		finished   bool
		removed    bool
		cancelTick func()
	)
	poll := func() {
		if finished {
			return
		}
		var done bool
		n, done, err = r.Poll(dst)
		if done || err != nil {
			finished = true
			if cancelTick != nil {
				cancelTick()
			}
		}
	}
	var tick func()
	tick = func() {
		poll()
		if finished || (removed && r.State().Settled()) {
			// done, or the card came and went without the reader noticing
			return
		}
		cancelTick = sim.SetTimer(sim.Now().Add(pollEvery), "sim.swipe.ReadSwipe/Poll", tick)
	}
	unsubscribe := dev.Subscribe(func() {
		if !dev.CardPresent() {
			removed = true
		}
		poll()
	})
	defer unsubscribe()

	if swipeErr := dev.Swipe(bits, nil); swipeErr != nil {
		return 0, swipeErr
	}
	tick()
	sim.RunUntilIdle(dev.Duration(len(bits)) + 2*pollEvery)
	if !finished {
		return 0, fmt.Errorf("%w (pending timers: %v)", ErrSwipeMissed, sim.PendingTimers())
	}
	return n, err
}
