package ws

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"chatnet/domain"
	"chatnet/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Handler struct {
	log         *slog.Logger
	chat        services.IChatService
	moderation  services.IModerationService
	reports     services.IReportService
	historySize int
}

func NewHandler(log *slog.Logger, chat services.IChatService,
	moderation services.IModerationService, reports services.IReportService,
	historySize int) *Handler {
	return &Handler{
		log:         log,
		chat:        chat,
		moderation:  moderation,
		reports:     reports,
		historySize: historySize,
	}
}

func (h *Handler) UpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// request is one inbound client frame.
type request struct {
	Op   string          `json:"op"`
	Seq  uint64          `json:"seq,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ackPayload struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Handle runs one connection: authenticate, register the session, then
// loop on inbound frames until the peer or a moderation action closes
// the socket. Disconnect is idempotent, so racing a kick is harmless.
func (h *Handler) Handle(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	connID := uuid.NewString()
	sink := NewSink(c, h.log)

	session, err := h.chat.Connect(c.Query("token"), connID, sink)
	if err != nil {
		_ = sink.Send(Frame{Event: "error", Data: ackPayload{Ok: false, Error: err.Error()}})
		return
	}
	defer h.chat.Disconnect(connID)

	_ = sink.Send(Frame{Event: "welcome", Data: fiber.Map{
		"username":  session.Username,
		"role":      session.Role,
		"guest":     session.Guest,
		"directory": h.chat.Directory(),
	}})

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.log.Debug("Read loop ended", "conn", connID, "error", err)
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			h.log.Debug("Malformed frame dropped", "conn", connID)
			continue
		}
		h.dispatch(connID, sink, req)
	}
}

// ack answers a request frame. Frames sent without a seq are
// fire-and-forget: failures are not echoed back, matching the silent
// treatment of unauthorized actions.
func (h *Handler) ack(sink *Sink, seq uint64, data any, err error) {
	if seq == 0 {
		if err != nil {
			h.log.Debug("Fire-and-forget op failed", "error", err)
		}
		return
	}
	payload := ackPayload{Ok: err == nil, Data: data}
	if err != nil {
		payload.Error = err.Error()
	}
	if sendErr := sink.Send(Frame{Event: "ack", Seq: seq, Data: payload}); sendErr != nil {
		h.log.Debug("Ack not delivered", "error", sendErr)
	}
}

func (h *Handler) dispatch(connID string, sink *Sink, req request) {
	switch req.Op {
	case "create-room":
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		room, err := h.chat.CreateRoom(connID, p.Name)
		h.ack(sink, req.Seq, room.Name, err)

	case "join":
		var p struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		h.ack(sink, req.Seq, nil, h.chat.JoinRoom(connID, p.Room))

	case "join-dm":
		var p struct {
			Peer string `json:"peer"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		room, err := h.chat.JoinDm(connID, p.Peer)
		h.ack(sink, req.Seq, room.Name, err)

	case "leave":
		h.chat.Leave(connID)
		h.ack(sink, req.Seq, nil, nil)

	case "post":
		var p struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		msg, err := h.chat.PostMessage(connID, p.Text)
		h.ack(sink, req.Seq, msg.ID, err)

	case "image":
		var p struct {
			Data string `json:"data"` // base64-encoded image bytes
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		raw, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		msg, err := h.chat.PostImage(connID, raw)
		h.ack(sink, req.Seq, msg.Content, err)

	case "edit":
		var p struct {
			Room    string    `json:"room"`
			ID      uuid.UUID `json:"id"`
			Content string    `json:"content"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		_, err := h.chat.EditMessage(connID, p.Room, p.ID, p.Content)
		h.ack(sink, req.Seq, nil, err)

	case "delete":
		var p struct {
			Room string    `json:"room"`
			ID   uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		_, err := h.chat.DeleteMessage(connID, p.Room, p.ID)
		h.ack(sink, req.Seq, nil, err)

	case "history":
		var p struct {
			Room  string `json:"room"`
			Limit int    `json:"limit"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		if p.Limit <= 0 || p.Limit > h.historySize {
			p.Limit = h.historySize
		}
		messages, err := h.chat.History(connID, p.Room, p.Limit)
		h.ack(sink, req.Seq, messages, err)

	case "typing":
		var p struct {
			Typing bool `json:"typing"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			return
		}
		h.chat.SetTyping(connID, p.Typing)

	case "members":
		var p struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		h.ack(sink, req.Seq, h.chat.Members(p.Room), nil)

	case "directory":
		h.ack(sink, req.Seq, h.chat.Directory(), nil)

	case "report":
		var p struct {
			Target string `json:"target"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		report, err := h.reports.CreateReport(connID, p.Target, p.Reason)
		h.ack(sink, req.Seq, report.ID, err)

	case "resolve-report":
		var p struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		_, err := h.reports.Resolve(connID, p.ID)
		h.ack(sink, req.Seq, nil, err)

	case "find":
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		reports, err := h.reports.Search(connID, p.Query)
		h.ack(sink, req.Seq, reports, err)

	case "resolve-ticket":
		var p struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
		h.ack(sink, req.Seq, nil, h.reports.ResolveTicket(connID, p.ID))

	default:
		h.dispatchModeration(connID, sink, req)
	}
}

func (h *Handler) dispatchModeration(connID string, sink *Sink, req request) {
	var p struct {
		Target string `json:"target"`
		Room   string `json:"room"`
		Reason string `json:"reason"`
		Role   string `json:"role"`
		Topic  string `json:"topic"`
	}
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &p); err != nil {
			h.ack(sink, req.Seq, nil, err)
			return
		}
	}

	var err error
	switch req.Op {
	case "kick":
		err = h.moderation.Kick(connID, p.Target, p.Reason)
	case "ban":
		err = h.moderation.Ban(connID, p.Target, p.Reason)
	case "unban":
		err = h.moderation.Unban(connID, p.Target)
	case "mute":
		err = h.moderation.Mute(connID, p.Target, true)
	case "unmute":
		err = h.moderation.Mute(connID, p.Target, false)
	case "warn":
		err = h.moderation.Warn(connID, p.Target, p.Reason)
	case "summon":
		err = h.moderation.Summon(connID, p.Target)
	case "release":
		err = h.moderation.Release(connID, p.Target)
	case "spectate":
		_, err = h.moderation.ToggleSpectate(connID, p.Target)
	case "promote":
		err = h.moderation.PromoteHost(connID, p.Room, p.Target)
	case "demote":
		err = h.moderation.DemoteHost(connID, p.Room, p.Target)
	case "assign-owner":
		err = h.moderation.AssignOwner(connID, p.Room, p.Target)
	case "set-topic":
		err = h.moderation.SetTopic(connID, p.Room, p.Topic)
	case "lock":
		err = h.moderation.SetLocked(connID, p.Room, true)
	case "unlock":
		err = h.moderation.SetLocked(connID, p.Room, false)
	case "role":
		err = h.moderation.SetRole(connID, p.Target, domain.Role(p.Role))
	default:
		h.log.Debug("Unknown op dropped", "op", req.Op)
		return
	}
	h.ack(sink, req.Seq, nil, err)
}
