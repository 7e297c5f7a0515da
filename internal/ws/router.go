package ws

import (
	"context"
	"encoding/json"
	"sync"
)

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, msg *Message) error

// Router keeps a map[action]handler, à-la gin.Engine. Actions without a
// handler are reported as unhandled so the server can fall back to its
// verbatim pass-through.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds an action to a strongly-typed handler. Req is decoded from
// the message content field.
func Register[Req any](
	r *Router,
	action string,
	h func(ctx context.Context, c *ConnContext, msg *Message, req Req) error,
) {
	if action == "" {
		panic("ws router: empty action")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[action] = func(ctx context.Context, c *ConnContext, msg *Message) error {
		var req Req
		if len(msg.Content) > 0 {
			if err := json.Unmarshal(msg.Content, &req); err != nil {
				return err
			}
		}
		return h(ctx, c, msg, req)
	}
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, msg *Message) (handled bool, err error) {
	r.mu.RLock()
	h, ok := r.handlers[msg.Action]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, h(ctx, c, msg)
}
