package orchestrator

import "sync"

// progressHub fans a session's events out to every active subscriber over
// a bounded, drop-oldest channel (§9: "a bounded channel with drop-oldest
// semantics, not an unbounded queue; slow subscribers must not slow the
// pipeline"). Publish never blocks: a full subscriber channel has its
// oldest buffered event evicted to make room for the newest.
type progressHub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	bufSize int
}

func newProgressHub(bufSize int) *progressHub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &progressHub{subs: make(map[int]chan Event), bufSize: bufSize}
}

// subscribe registers a new listener and returns its channel plus an
// unsubscribe function.
func (h *progressHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
}

// publish delivers e to every current subscriber without blocking,
// dropping the oldest buffered event for any subscriber whose channel is
// full.
func (h *progressHub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// closeAll closes every subscriber channel; called once a session reaches
// a terminal state and is about to be GC'd.
func (h *progressHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
