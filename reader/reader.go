package reader

import (
	"context"
	"errors"
	"log"
	"runtime"
	"time"

	"github.com/celskeggs/magstripe/stripe"
)

var (
	ErrAlreadyStarted = errors.New("reader already started")
	ErrNotStarted     = errors.New("reader not started")
)

// Hardware is the pin-level collaborator: two edge-triggered inputs and the
// card-present line. onData must be called on every change of the data line
// and onClock on every clock strobe, from whatever context the platform
// delivers edges in; the two callbacks are never invoked concurrently with
// each other.
type Hardware interface {
	Attach(onData, onClock func()) error
	Detach() error
	CardPresent() bool
}

// CaptureRecorder receives every raw capture before it is decoded.
type CaptureRecorder interface {
	Record(format string, bits []bool) error
}

type Option func(*Reader)

// WithPollInterval sets how long Read sleeps between checks of the card-present line.
// Zero makes Read spin, yielding the processor between checks.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Reader) {
		r.pollInterval = interval
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithStateObserver calls observe on every state transition, including the
// decoding states entered while a capture is being resolved.
func WithStateObserver(observe func(State)) Option {
	return func(r *Reader) {
		r.observe = observe
	}
}

func WithRecorder(recorder CaptureRecorder) Option {
	return func(r *Reader) {
		r.recorder = recorder
	}
}

// Reader owns the capture session for one card reader head. Only one read
// may be in flight at a time; a Reader is not safe for concurrent use.
type Reader struct {
	hw           Hardware
	pollInterval time.Duration
	logger       *log.Logger
	recorder     CaptureRecorder
	observe      func(State)

	session   stripe.Session
	decoder   *stripe.Decoder
	armed     bool
	state     State
	direction stripe.Direction
	last      stripe.Record
}

func New(hw Hardware, opts ...Option) *Reader {
	r := &Reader{
		hw:           hw,
		pollInterval: time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) setState(s State) {
	r.state = s
	if r.observe != nil {
		r.observe(s)
	}
}

func (r *Reader) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// Begin selects the stripe format and arms capture.
func (r *Reader) Begin(f *stripe.Format) error {
	if r.armed {
		return ErrAlreadyStarted
	}
	d := stripe.MakeDecoder(f)
	d.OnAttempt = func(direction stripe.Direction) {
		if direction == stripe.DirectionBackward {
			r.setState(StateDecodingReversed)
		} else {
			r.setState(StateDecodingForward)
		}
	}
	if err := r.hw.Attach(r.session.OnData, r.session.OnClock); err != nil {
		return err
	}
	r.decoder = d
	r.armed = true
	r.setState(StateIdle)
	r.direction = stripe.DirectionUnknown
	r.logf("reader armed for %v format", f)
	return nil
}

// BeginTrack is Begin with the format of an ISO track number.
func (r *Reader) BeginTrack(track int) error {
	f, err := stripe.ForTrack(track)
	if err != nil {
		return err
	}
	return r.Begin(f)
}

func (r *Reader) Stop() error {
	if !r.armed {
		return nil
	}
	r.armed = false
	r.setState(StateIdle)
	return r.hw.Detach()
}

// Available reports whether a card is in the reader right now.
func (r *Reader) Available() bool {
	return r.hw.CardPresent()
}

// Direction reports the orientation that produced the last successful
// decode, or DirectionUnknown if the last read failed.
func (r *Reader) Direction() stripe.Direction {
	return r.direction
}

// LastRecord returns the last successful decode. Its slices alias the
// buffers of that call.
func (r *Reader) LastRecord() stripe.Record {
	return r.last
}

func (r *Reader) State() State {
	return r.state
}

// Dropped reports how many bits the last capture could not store.
func (r *Reader) Dropped() int {
	return r.session.Dropped()
}

func (r *Reader) wait(ctx context.Context) error {
	if r.pollInterval <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	t := time.NewTimer(r.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Read waits for a card, waits for it to be swiped all the way through, and
// decodes the capture into dst, returning the number of characters written.
// There is no timeout other than ctx.
func (r *Reader) Read(ctx context.Context, dst []byte) (int, error) {
	if !r.armed {
		return 0, ErrNotStarted
	}
	for !r.hw.CardPresent() {
		if err := r.wait(ctx); err != nil {
			return 0, err
		}
	}
	return r.capture(ctx, dst)
}

// TryRead is Read for a card that is already present: it fails immediately
// with stripe.ErrNoCardPresent otherwise.
func (r *Reader) TryRead(ctx context.Context, dst []byte) (int, error) {
	if !r.armed {
		return 0, ErrNotStarted
	}
	if !r.hw.CardPresent() {
		return 0, stripe.ErrNoCardPresent
	}
	return r.capture(ctx, dst)
}

func (r *Reader) capture(ctx context.Context, dst []byte) (int, error) {
	r.session.Reset()
	r.setState(StateCapturing)
	for r.hw.CardPresent() {
		if err := r.wait(ctx); err != nil {
			r.setState(StateIdle)
			return 0, err
		}
	}
	r.setState(StateCaptureComplete)
	return r.decode(dst)
}

// Poll advances the swipe state machine without blocking. It returns
// done=true exactly once per swipe, when the card has left and the capture
// has been decoded; n and err are the result of that decode.
func (r *Reader) Poll(dst []byte) (n int, done bool, err error) {
	if !r.armed {
		return 0, false, ErrNotStarted
	}
	present := r.hw.CardPresent()
	switch {
	case r.state.Settled():
		if present {
			r.session.Reset()
			r.setState(StateCapturing)
		}
		return 0, false, nil
	case r.state == StateCapturing:
		if present {
			return 0, false, nil
		}
		r.setState(StateCaptureComplete)
		n, err := r.decode(dst)
		return n, true, err
	default:
		panic("reader polled in the middle of a decode")
	}
}

// precondition: the card has left the reader, so the edge callbacks have stopped
func (r *Reader) decode(dst []byte) (int, error) {
	c := r.session.Snapshot()
	if r.recorder != nil {
		if err := r.recorder.Record(r.decoder.Format.Name, c.Bits()); err != nil {
			r.logf("could not record capture: %v", err)
		}
	}
	rec, err := r.decoder.Decode(c, dst)
	if err != nil {
		r.setState(StateFailure)
		r.direction = stripe.DirectionUnknown
		r.logf("decode of %d bits failed (%d dropped): %v", c.Len(), r.session.Dropped(), err)
		return 0, err
	}
	r.setState(StateSuccess)
	r.direction = rec.Direction
	r.last = rec
	r.logf("decoded %d characters reading %v", len(rec.Chars), rec.Direction)
	return len(rec.Chars), nil
}
