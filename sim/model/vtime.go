package model

import (
	"fmt"
	"time"
)

// VirtualTime is a simulation timestamp: nanoseconds since the simulation
// started. Negative values, TimeNever among them, are times that never arrive.
type VirtualTime int64

const (
	TimeNever VirtualTime = -1
	TimeZero  VirtualTime = 0
)

func (t VirtualTime) String() string {
	if !t.TimeExists() {
		return "[never]"
	}
	sec, ns := int64(t)/int64(time.Second), int64(t)%int64(time.Second)
	return fmt.Sprintf("[%d.%09ds]", sec, ns)
}

func (t VirtualTime) TimeExists() bool {
	return t >= 0
}

func mustExist(a, b VirtualTime) {
	if !a.TimeExists() || !b.TimeExists() {
		panic(fmt.Sprintf("cannot compare %v with %v", a, b))
	}
}

func (t VirtualTime) Before(u VirtualTime) bool {
	mustExist(t, u)
	return t < u
}

func (t VirtualTime) After(u VirtualTime) bool {
	mustExist(t, u)
	return t > u
}

func (t VirtualTime) AtOrBefore(u VirtualTime) bool {
	mustExist(t, u)
	return t <= u
}

// Add offsets t by d. A time that never arrives stays that way.
func (t VirtualTime) Add(d time.Duration) VirtualTime {
	if !t.TimeExists() {
		return t
	}
	sum := t + VirtualTime(d)
	if sum < 0 {
		panic(fmt.Sprintf("%v + %v leaves the simulation timeline", t, d))
	}
	return sum
}

// Since is the (non-negative) duration from base to t.
func (t VirtualTime) Since(base VirtualTime) time.Duration {
	if base.After(t) {
		panic(fmt.Sprintf("%v is after %v", base, t))
	}
	return time.Duration(t - base)
}

func (t VirtualTime) Nanoseconds() uint64 {
	if !t.TimeExists() {
		panic("time never arrives")
	}
	return uint64(t)
}

// FromNanoseconds is the inverse of Nanoseconds; ok is false for values out of range.
func FromNanoseconds(ns uint64) (t VirtualTime, ok bool) {
	t = VirtualTime(ns)
	return t, t.TimeExists()
}
