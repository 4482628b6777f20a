package stripe

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionUnknown:
		return "Unknown"
	case DirectionForward:
		return "Forward"
	case DirectionBackward:
		return "Backward"
	default:
		panic(fmt.Sprintf("invalid direction: %d", uint8(d)))
	}
}

// Record is the result of one decode. Chars aliases the caller's buffer and
// Raw aliases the Decoder's scratch storage, which the next Decode overwrites.
type Record struct {
	// Chars is the payload: the decoded run without its start sentinel and LRC character.
	Chars []byte

	// Raw is the full decoded run.
	Raw []byte

	// Start is the sentinel offset in the orientation that decoded.
	Start int

	Direction Direction
}

func (r Record) String() string {
	return string(r.Chars)
}

// Decoder runs the locate/demodulate/validate pipeline over a capture, first
// as captured and then reversed. It holds fixed scratch storage and is not
// safe for concurrent use.
type Decoder struct {
	Format *Format
	// OnAttempt, if set, is called before each orientation is tried.
	OnAttempt func(Direction)

	scratch [MaxChars]byte
}

func MakeDecoder(f *Format) *Decoder {
	if f == nil {
		panic("nil format")
	}
	return &Decoder{Format: f}
}

func (d *Decoder) attempt(c Capture, limit int, direction Direction) (start, count int, err error) {
	if d.OnAttempt != nil {
		d.OnAttempt(direction)
	}
	f := d.Format
	start, ok := FindSentinel(c, f.StartSentinel, f.Width)
	if !ok {
		return 0, 0, ErrStartSentinelNotFound
	}
	count, err = Demodulate(c, start, f, d.scratch[:limit])
	if err != nil {
		return start, count, err
	}
	if err := CheckTerminator(d.scratch[:count], f); err != nil {
		return start, count, err
	}
	if err := CheckLRC(c, start, count, f); err != nil {
		return start, count, err
	}
	return start, count, nil
}

// Decode decodes c into dst. On a forward failure the capture is reversed
// and decoded again; either way c is back in its captured orientation on
// return. When both orientations fail the error carries both causes.
// Nothing is written to dst unless the decode succeeds and the payload fits.
func (d *Decoder) Decode(c Capture, dst []byte) (Record, error) {
	// room for the start sentinel and LRC character around the payload
	limit := len(dst) + 2
	if limit > len(d.scratch) {
		limit = len(d.scratch)
	}

	direction := DirectionForward
	start, count, err := d.attempt(c, limit, DirectionForward)
	if err != nil {
		fwdErr := fmt.Errorf("forward: %w", err)
		c.Reverse()
		start, count, err = d.attempt(c, limit, DirectionBackward)
		c.Reverse()
		if err != nil {
			return Record{Direction: DirectionUnknown}, multierror.Append(fwdErr, fmt.Errorf("backward: %w", err))
		}
		direction = DirectionBackward
	}

	raw := d.scratch[:count]
	// the scratch limit already guarantees the payload fits
	n := copy(dst, raw[1:count-1])
	if n < len(dst) {
		dst[n] = 0
	}
	return Record{
		Chars:     dst[:n],
		Raw:       raw,
		Start:     start,
		Direction: direction,
	}, nil
}

// Decode is a convenience wrapper that allocates its own output.
func Decode(c Capture, f *Format) (Record, error) {
	dst := make([]byte, MaxChars)
	return MakeDecoder(f).Decode(c, dst)
}
