package ws

import (
	"sync"
)

// Hub owns the room → stroke-history map and the connection → room map. All
// mutation of live drawing state goes through it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
	conns map[Conn]string
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
		conns: make(map[Conn]string),
	}
}

// Join associates the connection with roomID, creating the room on first
// reference. It returns the room's current history and the room the
// connection previously belonged to ("" if none, or if re-joining the same
// room). Re-joining is idempotent.
func (h *Hub) Join(roomID string, c Conn) (history []Stroke, prevRoom string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, had := h.conns[c]
	if had && prev != roomID {
		if pr := h.rooms[prev]; pr != nil {
			pr.remove(c)
		}
		prevRoom = prev
	}

	r := h.rooms[roomID]
	if r == nil {
		r = newRoom()
		h.rooms[roomID] = r
	}
	h.conns[c] = roomID

	// The membership add and the history snapshot share the fan-out lock, so
	// a stroke is either in the replayed history or in a later broadcast,
	// never both.
	r.order.Lock()
	r.add(c)
	history = r.history()
	r.order.Unlock()
	return history, prevRoom
}

// Leave disassociates the connection from its room without touching the
// transport. It reports which room was left.
func (h *Hub) Leave(c Conn) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomID, ok := h.conns[c]
	if !ok {
		return "", false
	}
	delete(h.conns, c)
	if r := h.rooms[roomID]; r != nil {
		r.remove(c)
	}
	return roomID, true
}

func (h *Hub) RoomOf(c Conn) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomID, ok := h.conns[c]
	return roomID, ok
}

func (h *Hub) Members(roomID string) int {
	if r := h.room(roomID); r != nil {
		return r.size()
	}
	return 0
}

// Broadcast delivers a frame to every member of roomID except sender, ordered
// with respect to any concurrent history mutation.
func (h *Hub) Broadcast(roomID string, sender Conn, msg []byte) {
	if r := h.room(roomID); r != nil {
		r.apply(sender, msg, nil)
	}
}

// AppendAndBroadcast appends the stroke to the room's history and fans frame
// out to the other members as one ordered step. It reports false when the
// room is gone.
func (h *Hub) AppendAndBroadcast(roomID string, s Stroke, sender Conn, frame []byte) bool {
	r := h.room(roomID)
	if r == nil {
		return false
	}
	r.apply(sender, frame, func() { r.appendStroke(s) })
	return true
}

// RemoveAndBroadcast drops the stroke with strokeID and fans frame out as one
// ordered step. The frame reaches co-members even when the id is unknown; the
// return value reports whether a stroke was actually removed.
func (h *Hub) RemoveAndBroadcast(roomID, strokeID string, sender Conn, frame []byte) bool {
	r := h.room(roomID)
	if r == nil {
		return false
	}
	var removed bool
	r.apply(sender, frame, func() { removed = r.removeStroke(strokeID) })
	return removed
}

// ClearAndBroadcast wipes the room's history and fans frame out as one
// ordered step.
func (h *Hub) ClearAndBroadcast(roomID string, sender Conn, frame []byte) {
	if r := h.room(roomID); r != nil {
		r.apply(sender, frame, func() { r.clearStrokes() })
	}
}

func (h *Hub) ClearStrokes(roomID string) {
	if r := h.room(roomID); r != nil {
		r.clearStrokes()
	}
}

func (h *Hub) History(roomID string) []Stroke {
	if r := h.room(roomID); r != nil {
		return r.history()
	}
	return nil
}

// DropRoom forgets the room, its stroke history, and any remaining member
// associations. Members keep their transports; later messages from them are
// no-ops until they join again.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
	for c, id := range h.conns {
		if id == roomID {
			delete(h.conns, c)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms), len(h.conns)
}

func (h *Hub) room(roomID string) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}
