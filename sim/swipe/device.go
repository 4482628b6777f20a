package swipe

import (
	"errors"
	"log"
	"time"

	"github.com/celskeggs/magstripe/reader"
	"github.com/celskeggs/magstripe/sim/component"
	"github.com/celskeggs/magstripe/sim/model"
)

type Config struct {
	Name string
	// BitPeriod is the time between clock strobes.
	BitPeriod time.Duration
	// Jitter randomly stretches each bit period by up to this fraction.
	Jitter float64
	// Settle is how long the card is present before the first bit and after the last.
	Settle time.Duration
}

func DefaultConfig() Config {
	return Config{
		Name:      "Head",
		BitPeriod: 200 * time.Microsecond,
		Jitter:    0.2,
		Settle:    2 * time.Millisecond,
	}
}

// Device simulates a reader head: a card-present line, a data line whose
// changes are reported through onData, and a clock line strobing onClock
// once per bit. Its event source fires whenever the card-present line changes.
type Device struct {
	*component.EventDispatcher
	ctx    model.SimContext
	config Config

	present bool
	level   bool
	busy    bool

	onData, onClock func()
}

var _ reader.Hardware = &Device{}

var ErrBusy = errors.New("swipe already in progress")

func MakeDevice(ctx model.SimContext, config Config) *Device {
	if config.BitPeriod <= 0 {
		panic("bit period must be positive")
	}
	return &Device{
		EventDispatcher: component.MakeEventDispatcher(ctx, "sim.swipe.Device"),
		ctx:             ctx,
		config:          config,
	}
}

func (d *Device) Attach(onData, onClock func()) error {
	d.onData, d.onClock = onData, onClock
	return nil
}

func (d *Device) Detach() error {
	d.onData, d.onClock = nil, nil
	return nil
}

func (d *Device) CardPresent() bool {
	return d.present
}

func (d *Device) logf(format string, args ...interface{}) {
	log.Printf("%v [%s] "+format, append([]interface{}{d.ctx.Now(), d.config.Name}, args...)...)
}

type stepFunc func() (time.Duration, stepFunc)

func (d *Device) run(step stepFunc, done func()) {
	var stepper func()
	stepper = func() {
		if step == nil {
			if done != nil {
				done()
			}
		} else {
			pause, nextStep := step()
			step = nextStep
			d.ctx.SetTimer(d.ctx.Now().Add(pause), "sim.swipe.Device/Step", stepper)
		}
	}
	stepper()
}

func (d *Device) bitPeriod() time.Duration {
	if d.config.Jitter <= 0 {
		return d.config.BitPeriod
	}
	stretch := d.ctx.Rand().Float64() * d.config.Jitter
	return d.config.BitPeriod + time.Duration(float64(d.config.BitPeriod)*stretch)
}

func (d *Device) setPresent(present bool) {
	d.present = present
	d.DispatchLater()
}

// Swipe schedules a card pass that delivers bits in order, starting now.
// done, if not nil, is called once the card has left.
func (d *Device) Swipe(bits []bool, done func()) error {
	if d.busy {
		return ErrBusy
	}
	d.busy = true
	bits = append([]bool{}, bits...)

	var remove, next stepFunc
	index := 0
	next = func() (time.Duration, stepFunc) {
		bit := bits[index]
		index++
		if bit != d.level {
			d.level = bit
			if d.onData != nil {
				d.onData()
			}
		}
		if d.onClock != nil {
			d.onClock()
		}
		if index < len(bits) {
			return d.bitPeriod(), next
		}
		return d.config.Settle, remove
	}
	remove = func() (time.Duration, stepFunc) {
		d.setPresent(false)
		d.busy = false
		d.logf("card removed after %d bits", len(bits))
		return 0, nil
	}
	insert := func() (time.Duration, stepFunc) {
		d.level = false
		d.setPresent(true)
		d.logf("card inserted")
		if len(bits) == 0 {
			return d.config.Settle, remove
		}
		return d.config.Settle, next
	}
	d.run(insert, done)
	return nil
}

// Duration is an upper bound on how long a swipe of n bits takes.
func (d *Device) Duration(n int) time.Duration {
	perBit := d.config.BitPeriod + time.Duration(float64(d.config.BitPeriod)*d.config.Jitter)
	return 2*d.config.Settle + time.Duration(n)*perBit
}
