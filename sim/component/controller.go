package component

import (
	"container/heap"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/celskeggs/magstripe/sim/model"
)

type pendingTimer struct {
	at   model.VirtualTime
	seq  uint64
	name string
	fire func()
	slot int // heap position; -1 once fired or cancelled
}

// timerHeap orders timers by expiry, then by the order they were set, so
// that a swipe's edges replay in sequence even when they share an instant.
type timerHeap []*pendingTimer

func (h timerHeap) Len() int {
	return len(h)
}

func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].slot, h[j].slot = i, j
}

func (h *timerHeap) Push(x interface{}) {
	t := x.(*pendingTimer)
	t.slot = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	t := old[len(old)-1]
	old[len(old)-1] = nil
	t.slot = -1
	*h = old[:len(old)-1]
	return t
}

// SimController owns virtual time for one simulation. Timers run on the
// goroutine that calls Advance, one at a time, in expiry order.
type SimController struct {
	now     model.VirtualTime
	rand    *rand.Rand
	seq     uint64
	pending timerHeap
}

var _ model.SimContext = &SimController{}

func (sc *SimController) Now() model.VirtualTime {
	return sc.now
}

func (sc *SimController) SetTimer(expireAt model.VirtualTime, name string, callback func()) (cancel func()) {
	if !expireAt.TimeExists() {
		panic(fmt.Sprintf("timer %s set for a time that never arrives", name))
	}
	t := &pendingTimer{
		at:   expireAt,
		seq:  sc.seq,
		name: name,
		fire: callback,
	}
	sc.seq++
	heap.Push(&sc.pending, t)
	return func() {
		if t.slot >= 0 {
			heap.Remove(&sc.pending, t.slot)
		}
	}
}

// Later runs callback on the current pass of Advance, after anything already due.
func (sc *SimController) Later(name string, callback func()) (cancel func()) {
	return sc.SetTimer(sc.now, name, callback)
}

func (sc *SimController) Rand() *rand.Rand {
	return sc.rand
}

func (sc *SimController) nextExpiry() model.VirtualTime {
	if len(sc.pending) == 0 {
		return model.TimeNever
	}
	return sc.pending[0].at
}

// PendingTimers names the timers not yet fired, soonest first.
func (sc *SimController) PendingTimers() []string {
	sorted := append(timerHeap{}, sc.pending...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted.Less(i, j)
	})
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.name
	}
	return names
}

// runDue fires every timer due by now, including any the callbacks set for now.
func (sc *SimController) runDue() {
	for len(sc.pending) > 0 && sc.pending[0].at.AtOrBefore(sc.now) {
		heap.Pop(&sc.pending).(*pendingTimer).fire()
	}
}

// Advance moves virtual time forward to target, stopping at each timer
// expiry on the way, and returns the expiry of the next pending timer.
func (sc *SimController) Advance(target model.VirtualTime) (nextTimer model.VirtualTime) {
	sc.runDue()
	for sc.now.Before(target) {
		step := target
		if next := sc.nextExpiry(); next.TimeExists() && next.Before(target) {
			step = next
		}
		sc.now = step
		sc.runDue()
	}
	return sc.nextExpiry()
}

// RunUntilIdle advances until no timers remain, or until limit has elapsed.
// It reports whether the simulation went idle.
func (sc *SimController) RunUntilIdle(limit time.Duration) bool {
	deadline := sc.now.Add(limit)
	for next := sc.Advance(sc.now); next.TimeExists(); next = sc.Advance(next) {
		if next.After(deadline) {
			sc.Advance(deadline)
			return false
		}
	}
	return true
}

func MakeSimControllerRandomized() *SimController {
	return MakeSimControllerSeeded(time.Now().UnixNano())
}

func MakeSimControllerSeeded(seed int64) *SimController {
	return &SimController{
		now:  model.TimeZero,
		rand: rand.New(rand.NewSource(seed)),
	}
}
