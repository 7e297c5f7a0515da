package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"postcardrelay/internal/services/images"
	"postcardrelay/internal/services/rooms"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second // must be < pongWait

	maxFrameSize = 1 << 20 // strokes carry full point lists

	collaboratorTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

// ConnContext carries per-message state into action handlers.
type ConnContext struct {
	Conn   Conn
	Server *WsServer
	Frame  []byte // raw inbound frame, rebroadcast verbatim
}

type WsServer struct {
	hub      *Hub
	router   *Router
	roomSvc  rooms.IRoomService
	imageSvc images.IImageService
	grace    time.Duration
}

func NewWsServer(h *Hub, roomSvc rooms.IRoomService, imageSvc images.IImageService, grace time.Duration) *WsServer {
	srv := &WsServer{
		hub:      h,
		router:   NewRouter(),
		roomSvc:  roomSvc,
		imageSvc: imageSvc,
		grace:    grace,
	}
	srv.registerHandlers() // ← all WS actions configured here
	return srv
}

func (s *WsServer) Hub() *Hub { return s.hub }

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	if !websocket.IsWebSocketUpgrade(ginCtx.Request) {
		ginCtx.Header("Connection", "Upgrade")
		ginCtx.Header("Upgrade", "websocket")
		ginCtx.String(http.StatusUpgradeRequired, "Upgrade Required")
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	wsConn := &clientConn{rawConn: rawConn}
	go s.reader(wsConn)
	go s.pinger(wsConn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 ping ----------------------------------------------------------------
	Register(
		s.router,
		ActionPing,
		func(ctx context.Context, cc *ConnContext, msg *Message, _ json.RawMessage) error {
			content, _ := json.Marshal("Pong!")
			return cc.Conn.SendJSON(Message{
				Username: serverName,
				Action:   ActionPong,
				Content:  content,
			})
		},
	)

	// 🔹 join ----------------------------------------------------------------
	Register(
		s.router,
		ActionJoin,
		func(ctx context.Context, cc *ConnContext, msg *Message, _ json.RawMessage) error {
			if msg.RoomID == "" {
				return errors.New("missing roomId")
			}
			history, prevRoom := s.hub.Join(msg.RoomID, cc.Conn)
			if prevRoom != "" {
				// switching rooms counts as leaving the old one
				s.scheduleReap(prevRoom)
			}
			return cc.Conn.SendJSON(Message{
				Username: serverName,
				Action:   ActionJoinResponse,
				Content:  historyContent(history),
			})
		},
	)

	// 🔹 leave ---------------------------------------------------------------
	Register(
		s.router,
		ActionLeave,
		func(ctx context.Context, cc *ConnContext, msg *Message, _ json.RawMessage) error {
			if roomID, ok := s.hub.Leave(cc.Conn); ok {
				s.scheduleReap(roomID)
			}
			return nil
		},
	)

	// 🔹 stroke --------------------------------------------------------------
	Register(
		s.router,
		ActionStroke,
		func(ctx context.Context, cc *ConnContext, msg *Message, stroke Stroke) error {
			roomID, ok := s.hub.RoomOf(cc.Conn)
			if !ok {
				return errors.New("not in a room")
			}
			if len(stroke.Raw) == 0 {
				return errors.New("missing stroke content")
			}
			s.hub.AppendAndBroadcast(roomID, stroke, cc.Conn, cc.Frame)
			return nil
		},
	)

	// 🔹 clear ---------------------------------------------------------------
	Register(
		s.router,
		ActionClear,
		func(ctx context.Context, cc *ConnContext, msg *Message, _ json.RawMessage) error {
			roomID, ok := s.hub.RoomOf(cc.Conn)
			if !ok {
				return errors.New("not in a room")
			}
			s.hub.ClearAndBroadcast(roomID, cc.Conn, cc.Frame)
			return nil
		},
	)

	// 🔹 undo ----------------------------------------------------------------
	Register(
		s.router,
		ActionUndo,
		func(ctx context.Context, cc *ConnContext, msg *Message, req UndoContent) error {
			roomID, ok := s.hub.RoomOf(cc.Conn)
			if !ok {
				return errors.New("not in a room")
			}
			// unknown undoId is a no-op, co-members still get the message
			s.hub.RemoveAndBroadcast(roomID, req.UndoID, cc.Conn, cc.Frame)
			return nil
		},
	)

	// 🔹 redo ----------------------------------------------------------------
	Register(
		s.router,
		ActionRedo,
		func(ctx context.Context, cc *ConnContext, msg *Message, stroke Stroke) error {
			roomID, ok := s.hub.RoomOf(cc.Conn)
			if !ok {
				return errors.New("not in a room")
			}
			if len(stroke.Raw) == 0 {
				return errors.New("missing stroke content")
			}
			s.hub.AppendAndBroadcast(roomID, stroke, cc.Conn, cc.Frame)
			return nil
		},
	)

	// 🔹 close ---------------------------------------------------------------
	Register(
		s.router,
		ActionClose,
		func(ctx context.Context, cc *ConnContext, msg *Message, _ json.RawMessage) error {
			roomID, ok := s.hub.RoomOf(cc.Conn)
			if !ok {
				return errors.New("not in a room")
			}
			s.teardown(ctx, roomID, cc.Conn)
			return nil
		},
	)
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		_ = conn.Close()
		// unexpected disconnects behave like an explicit leave
		if roomID, ok := s.hub.Leave(conn); ok {
			s.scheduleReap(roomID)
		}
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			zap.L().Warn("ws.bad_frame", zap.Error(err))
			continue
		}
		if msg.Action == "" {
			zap.L().Warn("ws.missing_action")
			continue
		}

		cc := &ConnContext{Conn: conn, Server: s, Frame: frame}

		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		handled, err := s.router.dispatch(ctx, cc, &msg)
		cancel()

		if err != nil {
			zap.L().Warn("ws.handle", zap.String("action", msg.Action), zap.Error(err))
			continue
		}

		// Unrecognized actions pass through to the room untouched so newer
		// clients can speak to each other through an older relay.
		if !handled {
			if roomID, ok := s.hub.RoomOf(conn); ok {
				s.hub.Broadcast(roomID, conn, frame)
			}
		}
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.Ping(); err != nil {
			_ = conn.Close()
			return
		}
	}
}

// scheduleReap arms the idle-room countdown. Membership is re-read when the
// timer fires, so a join landing inside the grace window keeps the room alive
// without any timer bookkeeping.
func (s *WsServer) scheduleReap(roomID string) {
	time.AfterFunc(s.grace, func() {
		if s.hub.Members(roomID) > 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		zap.L().Info("ws.room_reap", zap.String("room", roomID))
		s.teardown(ctx, roomID, nil)
	})
}

// teardown drops the room's live state and purges its registry entry and
// background image. Collaborator failures are logged and do not keep the
// in-memory state alive: the relay is not the source of truth for either.
func (s *WsServer) teardown(ctx context.Context, roomID string, except Conn) {
	s.hub.ClearStrokes(roomID)

	dto, err := s.roomSvc.GetImageConnectedToRoom(ctx, roomID)
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		// nothing persisted for this room
	case err != nil:
		zap.L().Warn("ws.room_lookup", zap.String("room", roomID), zap.Error(err))
	default:
		if _, err := s.roomSvc.DeleteRoom(ctx, roomID); err != nil {
			zap.L().Warn("ws.room_delete", zap.String("room", roomID), zap.Error(err))
		}
		if dto.ImageID != "" {
			if err := s.imageSvc.Delete(ctx, dto.ImageID); err != nil {
				zap.L().Warn("ws.image_delete", zap.String("image", dto.ImageID), zap.Error(err))
			}
		}
	}

	closeMsg, _ := json.Marshal(Message{
		Username: serverName,
		Action:   ActionClose,
		Content:  json.RawMessage(`{}`),
	})
	s.hub.Broadcast(roomID, except, closeMsg)
	s.hub.DropRoom(roomID)
}
