package reader

import "fmt"

// State tracks one swipe from card arrival to a decoded result.
type State uint8

const (
	StateIdle State = iota
	StateCapturing
	StateCaptureComplete
	StateDecodingForward
	StateDecodingReversed
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCapturing:
		return "Capturing"
	case StateCaptureComplete:
		return "CaptureComplete"
	case StateDecodingForward:
		return "DecodingForward"
	case StateDecodingReversed:
		return "DecodingReversed"
	case StateSuccess:
		return "Success"
	case StateFailure:
		return "Failure"
	default:
		panic(fmt.Sprintf("invalid reader state: %d", uint8(s)))
	}
}

// Settled reports whether no swipe is in progress.
func (s State) Settled() bool {
	return s == StateIdle || s == StateSuccess || s == StateFailure
}
