package ws

import "encoding/json"

// Message wraps every WS frame exchanged with drawing clients.
type Message struct {
	UserID   string          `json:"userId,omitempty"`
	Username string          `json:"username,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	Action   string          `json:"action"`
	Content  json.RawMessage `json:"content,omitempty"`
}

// Action tags understood by the relay. Anything else is forwarded to the
// sender's room untouched.
const (
	ActionPing         = "ping"
	ActionPong         = "pong"
	ActionJoin         = "join"
	ActionJoinResponse = "join-response"
	ActionStroke       = "stroke"
	ActionClear        = "clear"
	ActionUndo         = "undo"
	ActionRedo         = "redo"
	ActionLeave        = "leave"
	ActionClose        = "close"
)

// serverName labels relay-originated messages.
const serverName = "Server"

// Stroke is one drawing gesture. The payload is opaque to the relay: only the
// client-assigned id is parsed (undo matches on it); the raw JSON is kept
// verbatim for replay to late joiners.
type Stroke struct {
	ID  string
	Raw json.RawMessage
}

func (s *Stroke) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.ID = aux.ID
	s.Raw = append(s.Raw[:0], b...)
	return nil
}

func (s Stroke) MarshalJSON() ([]byte, error) {
	if len(s.Raw) == 0 {
		return []byte("null"), nil
	}
	return s.Raw, nil
}

// UndoContent is the body of an "undo" message.
type UndoContent struct {
	UndoID string `json:"undoId"`
}

// historyContent serializes a stroke sequence the way the canvas client
// expects it: a JSON string holding the stroke array, which the client parses
// out of the "join-response" content field.
func historyContent(strokes []Stroke) json.RawMessage {
	arr, err := json.Marshal(strokes)
	if err != nil {
		arr = []byte("[]")
	}
	quoted, _ := json.Marshal(string(arr))
	return quoted
}
