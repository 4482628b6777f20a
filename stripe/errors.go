package stripe

import "errors"

var (
	ErrNoCardPresent         = errors.New("no card present")
	ErrStartSentinelNotFound = errors.New("start sentinel not found")
	ErrSymbolParity          = errors.New("symbol parity error")
	ErrOutputBufferTooSmall  = errors.New("output buffer too small")
	ErrMalformedTerminator   = errors.New("end sentinel not in expected position")
	ErrLongitudinalParity    = errors.New("longitudinal redundancy check failed")
)
