package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/mytolk/mytolk-server/internal/conversation"
	"github.com/mytolk/mytolk-server/internal/feed"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
	"github.com/mytolk/mytolk-server/internal/notify"
	"github.com/mytolk/mytolk-server/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 8 * 1024
	sendBuffer   = 256
)

// WS serves the live connection: it pushes applied conversation changes
// and notifications to the client, and accepts partner switches.
type WS struct {
	store          conversation.Store
	profileService ProfileService
	bus            feed.Bus
	notifier       *notify.RedisNotifier
	contextManager model.ContextManager
	logger         *logger.Logger
	upgrader       websocket.Upgrader
}

// NewWS creates a new WS handler instance.
func NewWS(
	store conversation.Store,
	profileService ProfileService,
	bus feed.Bus,
	notifier *notify.RedisNotifier,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *WS {
	return &WS{
		store:          store,
		profileService: profileService,
		bus:            bus,
		notifier:       notifier,
		contextManager: contextManager,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxFrameSize,
			WriteBufferSize: maxFrameSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// clientFrame is a command sent by the client over the socket.
type clientFrame struct {
	Action    string `json:"action"`
	PartnerID string `json:"partner_id,omitempty"`
}

// serverFrame is a push sent to the client over the socket.
type serverFrame struct {
	Type         string              `json:"type"`
	User         *userResponse       `json:"user,omitempty"`
	Messages     []messageResponse   `json:"messages,omitempty"`
	Users        []userResponse      `json:"users,omitempty"`
	EventType    model.ChangeType    `json:"event_type,omitempty"`
	Message      *messageResponse    `json:"message,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Connect upgrades the request and runs the connection until the client
// goes away.
func (h *WS) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WS handler: upgrade failed",
			"user_id", userID,
			"error", err.Error())
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan serverFrame, sendBuffer),
		holder: session.New(),
		view:   conversation.NewView(userID, h.store, h.bus, h.logger),
		logger: h.logger,
	}

	// Forward every applied conversation change to the socket.
	client.view.OnEvent(func(event model.ChangeEvent) {
		message := toMessageResponse(event.Message)
		client.push(serverFrame{Type: "change", EventType: event.Type, Message: &message})
	})

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("WS handler: failed to load principal",
			"user_id", userID,
			"error", err.Error())
		client.holder.Clear()
		_ = conn.Close()
		return
	}
	client.holder.Set(user)

	response := toUserResponse(user)
	client.push(serverFrame{Type: "session", User: &response})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.notifier.Subscribe(ctx, userID)
	go client.notificationPump(pubsub.Channel())

	go client.writePump()
	client.readPump(ctx)

	// The send channel is never closed: the notification and feed pumps may
	// still be pushing while the connection winds down, and push on a dead
	// socket is harmless. The write pump exits on its next failed write.
	client.view.Close()
	client.holder.Clear()
	_ = pubsub.Close()
	_ = conn.Close()

	h.logger.Info("WS handler: connection closed", "user_id", userID)
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan serverFrame
	holder *session.Holder
	view   *conversation.View
	logger *logger.Logger
}

// push is non-blocking. A client too slow to drain its buffer loses
// frames; it resyncs on the next refresh.
func (c *wsClient) push(frame serverFrame) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("dropping frame for slow websocket client",
			"frame_type", frame.Type)
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.push(serverFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		c.handleFrame(ctx, frame)
	}
}

func (c *wsClient) handleFrame(ctx context.Context, frame clientFrame) {
	switch frame.Action {
	case "set_partner":
		partnerID, err := uuid.Parse(frame.PartnerID)
		if err != nil {
			c.push(serverFrame{Type: "error", Error: "invalid partner_id"})
			return
		}
		if err := c.view.SetPartner(ctx, partnerID); err != nil {
			c.logger.Error("failed to switch conversation",
				"partner_id", partnerID,
				"error", err.Error())
			c.push(serverFrame{Type: "error", Error: "failed to open conversation"})
			return
		}
		c.pushConversation()
		c.refreshRecent(ctx)

	case "clear_partner":
		if err := c.view.SetPartner(ctx, uuid.Nil); err != nil {
			c.logger.Error("failed to clear conversation", "error", err.Error())
		}

	case "refresh":
		if err := c.view.Reload(ctx); err != nil {
			c.logger.Error("failed to reload conversation", "error", err.Error())
			c.push(serverFrame{Type: "error", Error: "failed to reload conversation"})
			return
		}
		c.pushConversation()
		c.refreshRecent(ctx)

	default:
		c.push(serverFrame{Type: "error", Error: "unknown action"})
	}
}

func (c *wsClient) pushConversation() {
	c.push(serverFrame{Type: "conversation", Messages: toMessageResponses(c.view.Messages())})
}

func (c *wsClient) refreshRecent(ctx context.Context) {
	if err := c.view.RefreshRecent(ctx); err != nil {
		c.logger.Debug("failed to refresh recent chats", "error", err.Error())
		return
	}
	c.push(serverFrame{Type: "recent", Users: toUserResponses(c.view.Recent())})
}

func (c *wsClient) notificationPump(messages <-chan *redis.Message) {
	for msg := range messages {
		var notification model.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
			c.logger.Error("failed to decode notification", "error", err.Error())
			continue
		}
		c.push(serverFrame{Type: "notification", Notification: &notification})
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
