// internal/regcache/events.go
package regcache

// EventKind tells subscribers what happened.
type EventKind uint8

const (
	// EventChanged follows every call that mutated cache contents or states.
	EventChanged EventKind = iota
	// EventPending fires when HasChanges flips.
	EventPending
)

// Event is delivered synchronously to subscribers, on the caller's goroutine.
type Event struct {
	Kind       EventKind
	HasChanges bool
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cache[W]) Subscribe(fn func(Event)) (cancel func()) {
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Cache[W]) emit(kind EventKind) {
	ev := Event{Kind: kind, HasChanges: c.changes != 0}
	// a subscriber may cancel itself while being notified
	subs := append([]subscriber(nil), c.subs...)
	for _, s := range subs {
		s.fn(ev)
	}
}
