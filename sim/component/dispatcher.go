package component

import (
	"github.com/celskeggs/magstripe/sim/model"
)

type subscription struct {
	id       uint64
	callback func()
}

// EventDispatcher is a model.EventSource that calls its subscribers in the
// order they subscribed.
type EventDispatcher struct {
	ctx       model.SimContext
	laterName string
	subs      []subscription
	nextID    uint64
	pending   bool
}

var _ model.EventSource = &EventDispatcher{}

func MakeEventDispatcher(ctx model.SimContext, name string) *EventDispatcher {
	return &EventDispatcher{
		ctx:       ctx,
		laterName: name + "/DispatchLater",
	}
}

func (ed *EventDispatcher) Subscribe(callback func()) (cancel func()) {
	id := ed.nextID
	ed.nextID++
	ed.subs = append(ed.subs, subscription{id: id, callback: callback})
	return func() {
		for i, sub := range ed.subs {
			if sub.id == id {
				// fresh backing array: a Dispatch in progress keeps iterating the old one
				ed.subs = append(ed.subs[:i:i], ed.subs[i+1:]...)
				return
			}
		}
	}
}

func (ed *EventDispatcher) Dispatch() {
	for _, sub := range ed.subs {
		sub.callback()
	}
}

// DispatchLater coalesces any number of calls into one dispatch on the next pass of the simulation loop.
func (ed *EventDispatcher) DispatchLater() {
	if ed.pending {
		return
	}
	ed.pending = true
	ed.ctx.Later(ed.laterName, func() {
		ed.pending = false
		ed.Dispatch()
	})
}
