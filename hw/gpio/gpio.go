//go:build linux

// Package gpio connects a TTL magnetic stripe reader head to Linux GPIO lines.
//
// The head has three open-collector outputs: data (RDT), clock (RCL) and
// card present (CLS). Data changes are reported on both edges, the clock on
// its falling edge, and the card-present line reads low while a card is in
// the slot.
package gpio

import (
	"errors"
	"fmt"

	"github.com/celskeggs/magstripe/reader"
	"github.com/hashicorp/go-multierror"
	"github.com/warthog618/gpiod"
)

type Config struct {
	Chip        string
	DataLine    int
	ClockLine   int
	PresentLine int
}

// Head is a reader.Hardware backed by gpiod. The data and clock lines share
// one line request, so gpiod reports their edges from a single watcher
// goroutine in the order the kernel queued them, which is the capture
// context the reader expects.
type Head struct {
	chip    *gpiod.Chip
	present *gpiod.Line
	edges   *gpiod.Lines
	config  Config
}

var _ reader.Hardware = &Head{}

func Open(config Config) (*Head, error) {
	if config.DataLine == config.ClockLine {
		return nil, fmt.Errorf("data and clock cannot share line %d", config.DataLine)
	}
	chip, err := gpiod.NewChip(config.Chip, gpiod.WithConsumer("magstripe"))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", config.Chip, err)
	}
	present, err := chip.RequestLine(config.PresentLine, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		return nil, multierror.Append(fmt.Errorf("requesting card-present line %d: %w", config.PresentLine, err), chip.Close())
	}
	return &Head{
		chip:    chip,
		present: present,
		config:  config,
	}, nil
}

// edgeHandler routes the events of the shared data/clock request: every data
// edge toggles the level, and only the falling edge of the clock strobes a bit.
func edgeHandler(config Config, onData, onClock func()) func(gpiod.LineEvent) {
	return func(evt gpiod.LineEvent) {
		switch evt.Offset {
		case config.DataLine:
			onData()
		case config.ClockLine:
			if evt.Type == gpiod.LineEventFallingEdge {
				onClock()
			}
		}
	}
}

func (h *Head) Attach(onData, onClock func()) error {
	if h.edges != nil {
		return errors.New("edge handlers already attached")
	}
	edges, err := h.chip.RequestLines([]int{h.config.DataLine, h.config.ClockLine},
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(edgeHandler(h.config, onData, onClock)))
	if err != nil {
		return fmt.Errorf("requesting data line %d and clock line %d: %w", h.config.DataLine, h.config.ClockLine, err)
	}
	h.edges = edges
	return nil
}

func (h *Head) Detach() error {
	if h.edges == nil {
		return nil
	}
	err := h.edges.Close()
	h.edges = nil
	return err
}

// CardPresent reads the card-present line, which is active low. A read
// error is reported as no card.
func (h *Head) CardPresent() bool {
	v, err := h.present.Value()
	return err == nil && v == 0
}

func (h *Head) Close() error {
	result := h.Detach()
	if err := h.present.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := h.chip.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
