package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"survive/internal/common/uuid"
	"survive/internal/config"
	"survive/internal/logger"
	"survive/internal/model"
	"survive/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Inbound event names. Aliases keep older clients working.
const (
	EventCreateGame    = "createGame"
	EventCreateRoom    = "createRoom"
	EventJoinGame      = "joinGame"
	EventJoinRoom      = "joinRoom"
	EventAnimalSwitch  = "animalSwitch"
	EventCall          = "call"
	EventTapPlayer     = "tapPlayer"
	EventTap           = "tap"
	EventBuyBoost      = "buyBoost"
	EventResumeSession = "resumeSession"
	EventLeaveGame     = "leaveGame"
	EventLeaveRoom     = "leaveRoom"
	EventStartGame     = "startGame"
	EventStartRoom     = "startRoom"
	EventGetState      = "getState"
	EventPing          = "ping"
)

const (
	codeBadRequest   = "BAD_REQUEST"
	codeUnknownEvent = "UNKNOWN_EVENT"

	requestTimeout = 5 * time.Second
)

// Services are the game operations the gateway dispatches to
type Services struct {
	Rooms   *service.RoomService
	Players *service.PlayerService
	Game    *service.GameService
	Boosts  *service.BoostService
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	svc      Services
	ids      uuid.UUID
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	log      *zap.Logger
	handlers map[string]eventHandler
}

type eventHandler func(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error)

// inboundPayload is the union of every client payload
type inboundPayload struct {
	GameID       string `json:"gameId"`
	RoomID       string `json:"roomId"`
	PlayerName   string `json:"playerName"`
	Name         string `json:"name"`
	GameTimer    int    `json:"gameTimer"`
	FromPlayer   string `json:"fromPlayer"`
	ToPlayer     string `json:"toPlayer"`
	TargetPlayer string `json:"targetPlayer"`
	SessionToken string `json:"sessionToken"`
}

func (p *inboundPayload) room() string {
	if p.GameID != "" {
		return p.GameID
	}
	return p.RoomID
}

func (p *inboundPayload) player() string {
	if p.PlayerName != "" {
		return p.PlayerName
	}
	return p.Name
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, svc Services, ids uuid.UUID, cfg config.WebSocketConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		hub: hub,
		svc: svc,
		ids: ids,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy lives in the HTTP CORS layer
			},
		},
		log: log,
	}
	h.handlers = map[string]eventHandler{
		EventCreateGame:    h.handleCreate,
		EventCreateRoom:    h.handleCreate,
		EventJoinGame:      h.handleJoin,
		EventJoinRoom:      h.handleJoin,
		EventAnimalSwitch:  h.handleCall,
		EventCall:          h.handleCall,
		EventTapPlayer:     h.handleTap,
		EventTap:           h.handleTap,
		EventBuyBoost:      h.handleBuyBoost,
		EventResumeSession: h.handleResume,
		EventLeaveGame:     h.handleLeave,
		EventLeaveRoom:     h.handleLeave,
		EventStartGame:     h.handleStart,
		EventStartRoom:     h.handleStart,
		EventGetState:      h.handleGetState,
		EventPing:          h.handlePing,
	}
	return h
}

// ServeWS handles GET /v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(h.ids.NewUUID(), h.cfg.SendBuffer)
	h.hub.Register(conn)
	h.log.Debug("websocket connected", zap.String("conn_id", conn.ID), zap.String("remote", r.RemoteAddr))

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
		h.onClose(conn)
	}()

	pongWait := h.cfg.PongTimeout
	wsConn.SetReadLimit(h.cfg.MaxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Info("websocket closed unexpectedly", zap.String("conn_id", conn.ID), zap.Error(err))
			}
			break
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	writeWait := h.cfg.WriteTimeout
	ticker := time.NewTicker(h.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// onClose marks the bound player disconnected so the rejoin grace starts
func (h *Handler) onClose(conn *Connection) {
	roomID, name, sid := conn.Identity()
	if roomID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := h.svc.Players.Disconnect(ctx, roomID, name, sid); err != nil {
		h.log.Warn("disconnect failed", zap.String("room_id", roomID), zap.String("player", name), zap.Error(err))
	}
}

// dispatch decodes one envelope and acks the caller. Failures never close the socket.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		h.hub.Reply(conn, "", "", failure(codeBadRequest, "malformed message"))
		return
	}
	logger.LogWebSocketMessage("in", msg.Type, msg.Payload)

	handle, ok := h.handlers[msg.Type]
	if !ok {
		h.hub.Reply(conn, msg.RequestID, msg.Type, failure(codeUnknownEvent, "unsupported event: "+msg.Type))
		return
	}

	var payload inboundPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.hub.Reply(conn, msg.RequestID, msg.Type, failure(codeBadRequest, "malformed payload"))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := h.invoke(ctx, handle, conn, &payload)
	if err != nil {
		if service.KindOf(err) == service.KindInternal {
			h.log.Error("event failed", zap.String("event", msg.Type), zap.String("conn_id", conn.ID), zap.Error(err))
		}
		h.hub.Reply(conn, msg.RequestID, msg.Type, failure(service.CodeOf(err), service.MessageOf(err)))
		return
	}
	h.hub.Reply(conn, msg.RequestID, msg.Type, success(result))
}

func (h *Handler) invoke(ctx context.Context, handle eventHandler, conn *Connection, p *inboundPayload) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(h.log.With(zap.String("conn_id", conn.ID)), r, debug.Stack())
			err = errors.New("internal error")
		}
	}()
	return handle(ctx, conn, p)
}

// actor resolves who is acting: the bound player for this room, else the payload name.
// A bound socket whose session was rotated by a resume elsewhere, or whose seat was
// evicted, no longer acts for anyone.
func (h *Handler) actor(conn *Connection, roomID, fallback string) (string, error) {
	boundRoom, name, sid := conn.Identity()
	if boundRoom == "" || boundRoom != roomID {
		return fallback, nil
	}
	current, err := h.svc.Players.SessionOf(roomID, name)
	if errors.Is(err, service.ErrPlayerNotFound) {
		return "", service.ErrInvalidSession
	}
	if err != nil {
		return "", err
	}
	if current != sid {
		return "", service.ErrInvalidSession
	}
	return name, nil
}

// roomOf resolves the room: the payload id, else the bound room
func (h *Handler) roomOf(conn *Connection, p *inboundPayload) string {
	if id := p.room(); id != "" {
		return id
	}
	roomID, _, _ := conn.Identity()
	return roomID
}

// bind moves the connection to a new identity, releasing the previous one
func (h *Handler) bind(ctx context.Context, conn *Connection, roomID string, player *model.Player) {
	prevRoom, prevName, prevSID := conn.Identity()
	h.hub.Bind(conn, roomID, player.Name, player.SessionID)
	if prevRoom != "" && (prevRoom != roomID || prevName != player.Name) {
		if err := h.svc.Players.Disconnect(ctx, prevRoom, prevName, prevSID); err != nil {
			h.log.Warn("release previous seat failed", zap.String("room_id", prevRoom), zap.Error(err))
		}
	}
}

func (h *Handler) handleCreate(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	out, err := h.svc.Rooms.CreateRoom(ctx, &service.CreateRoomInput{
		PlayerName:   p.player(),
		TimerSeconds: p.GameTimer,
	})
	if err != nil {
		return nil, err
	}
	h.bind(ctx, conn, out.Room.ID, out.Player)
	return map[string]interface{}{
		"gameId":       out.Room.ID,
		"sessionToken": out.SessionToken,
		"player":       out.Player,
		"room":         out.Room,
	}, nil
}

func (h *Handler) handleJoin(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	out, err := h.svc.Players.JoinRoom(ctx, &service.JoinRoomInput{
		RoomID:     p.room(),
		PlayerName: p.player(),
	})
	if err != nil {
		return nil, err
	}
	h.bind(ctx, conn, out.Room.ID, out.Player)
	return map[string]interface{}{
		"gameId":       out.Room.ID,
		"sessionToken": out.SessionToken,
		"player":       out.Player,
		"room":         out.Room,
	}, nil
}

func (h *Handler) handleCall(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	roomID := h.roomOf(conn, p)
	caller, err := h.actor(conn, roomID, p.FromPlayer)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Game.Call(ctx, &service.CallInput{
		RoomID: roomID,
		Caller: caller,
		Target: p.ToPlayer,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"callId":   out.Call.ID,
		"deadline": out.Call.Deadline.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (h *Handler) handleTap(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	roomID := h.roomOf(conn, p)
	actor, err := h.actor(conn, roomID, p.player())
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Game.Tap(ctx, &service.TapInput{
		RoomID: roomID,
		Actor:  actor,
		Target: p.TargetPlayer,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"outcome": out.Outcome,
		"room":    out.Room,
	}, nil
}

func (h *Handler) handleBuyBoost(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	roomID := h.roomOf(conn, p)
	name, err := h.actor(conn, roomID, p.player())
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Boosts.RequestGrant(ctx, roomID, name)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (h *Handler) handleResume(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	out, err := h.svc.Players.Resume(ctx, p.SessionToken)
	if err != nil {
		return nil, err
	}
	h.bind(ctx, conn, out.Room.ID, out.Player)
	return map[string]interface{}{
		"gameId":       out.Room.ID,
		"playerName":   out.Player.Name,
		"sessionToken": out.SessionToken,
		"room":         out.Room,
	}, nil
}

func (h *Handler) handleLeave(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	roomID := h.roomOf(conn, p)
	name, err := h.actor(conn, roomID, p.player())
	if err != nil {
		return nil, err
	}
	if err := h.svc.Players.Leave(ctx, roomID, name); err != nil {
		return nil, err
	}
	if boundRoom, boundName, _ := conn.Identity(); boundRoom == roomID && boundName == name {
		h.hub.Bind(conn, "", "", "")
	}
	return nil, nil
}

func (h *Handler) handleStart(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	room, err := h.svc.Rooms.StartRoom(ctx, h.roomOf(conn, p))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"room": room}, nil
}

func (h *Handler) handleGetState(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	room, err := h.svc.Rooms.GetRoom(ctx, h.roomOf(conn, p))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"room": room}, nil
}

func (h *Handler) handlePing(ctx context.Context, conn *Connection, p *inboundPayload) (interface{}, error) {
	return map[string]interface{}{"serverTime": time.Now().Unix()}, nil
}

// success merges result fields into an ack payload
func success(result interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	switch v := result.(type) {
	case nil:
	case map[string]interface{}:
		for k, val := range v {
			out[k] = val
		}
	case *service.GrantResult:
		out["applied"] = v.Applied
		out["points"] = v.Points
	default:
		out["result"] = v
	}
	return out
}

func failure(code, message string) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"code":    code,
		"message": message,
	}
}
