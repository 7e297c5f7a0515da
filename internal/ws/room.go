package ws

import (
	"sync"
)

// room holds the live connections and the accumulated stroke history of one
// drawing session.
type room struct {
	// order serializes mutate+fan-out pairs. Every member then observes
	// history-mutating frames in the order they entered the history, and a
	// join's replayed snapshot never overlaps an in-flight broadcast.
	order sync.Mutex

	mu      sync.RWMutex
	conns   map[Conn]struct{}
	strokes []Stroke
}

func newRoom() *room { return &room{conns: map[Conn]struct{}{}} }

func (r *room) add(c Conn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c Conn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// apply runs mutate (which may be nil) and fans frame out to every member
// except sender, as one ordered step.
func (r *room) apply(sender Conn, frame []byte, mutate func()) {
	r.order.Lock()
	defer r.order.Unlock()
	if mutate != nil {
		mutate()
	}
	r.broadcast(sender, frame)
}

// broadcast fans a frame out to every member except sender. A nil sender
// reaches everyone. Callers needing ordering with respect to the stroke
// history go through apply instead.
func (r *room) broadcast(sender Conn, msg []byte) {
	// Take a quick snapshot of the current connections
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		if c == sender {
			continue
		}
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	// Do the I/O outside the lock
	var failed []Conn
	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Close()
		r.remove(c)
	}
}

func (r *room) appendStroke(s Stroke) {
	r.mu.Lock()
	r.strokes = append(r.strokes, s)
	r.mu.Unlock()
}

// removeStroke drops the stroke with the given id. Removing an unknown id is
// a no-op.
func (r *room) removeStroke(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.strokes {
		if s.ID == id {
			r.strokes = append(r.strokes[:i], r.strokes[i+1:]...)
			return true
		}
	}
	return false
}

func (r *room) clearStrokes() {
	r.mu.Lock()
	r.strokes = nil
	r.mu.Unlock()
}

func (r *room) history() []Stroke {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Stroke, len(r.strokes))
	copy(out, r.strokes)
	return out
}
