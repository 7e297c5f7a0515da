package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_DispatchDecodesContent(t *testing.T) {
	r := NewRouter()
	var got UndoContent
	Register(r, ActionUndo, func(_ context.Context, _ *ConnContext, _ *Message, req UndoContent) error {
		got = req
		return nil
	})

	msg := &Message{Action: ActionUndo, Content: json.RawMessage(`{"undoId":"s1"}`)}
	handled, err := r.dispatch(context.Background(), &ConnContext{}, msg)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "s1", got.UndoID)
}

func TestRouter_UnknownActionUnhandled(t *testing.T) {
	r := NewRouter()
	handled, err := r.dispatch(context.Background(), &ConnContext{}, &Message{Action: "cursor-move"})
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestRouter_BadContent(t *testing.T) {
	r := NewRouter()
	Register(r, ActionUndo, func(_ context.Context, _ *ConnContext, _ *Message, _ UndoContent) error {
		t.Fatal("handler must not run on decode failure")
		return nil
	})

	msg := &Message{Action: ActionUndo, Content: json.RawMessage(`[not json`)}
	handled, err := r.dispatch(context.Background(), &ConnContext{}, msg)

	assert.True(t, handled)
	assert.Error(t, err)
}

func TestStroke_RoundTrip(t *testing.T) {
	raw := []byte(`{"id":"s1","tool":"pen","size":4,"colour":"#000","points":[0,0,10,10],"author":"u1"}`)

	var s Stroke
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "s1", s.ID)

	// replay keeps the payload byte-for-byte
	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}
