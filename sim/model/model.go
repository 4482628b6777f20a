package model

import "math/rand"

// SimContext schedules callbacks in virtual time. Everything scheduled
// through one context runs on a single goroutine, which plays the role of
// the interrupt context for simulated hardware.
type SimContext interface {
	Now() VirtualTime
	SetTimer(expireAt VirtualTime, name string, callback func()) (cancel func())
	Later(name string, callback func()) (cancel func())
	Rand() *rand.Rand
}

type EventSource interface {
	Subscribe(callback func()) (cancel func())
}
