package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/session"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every server to client message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// HelloMessage is sent once after the upgrade
type HelloMessage struct {
	SessionID        string `json:"session_id"`
	ServerInstanceID string `json:"server_instance_id"`
}

// CanvasWebSocketHandler streams canvas frames to one viewer per connection.
// Clients send session.Event JSON objects; the server answers with
// "hello", "frame" and "error" messages.
type CanvasWebSocketHandler struct {
	registry         *session.Registry
	logger           arbor.ILogger
	frameInterval    time.Duration
	readLimit        int64
	serverInstanceID string // Clients use this to detect a server restart
}

func NewCanvasWebSocketHandler(registry *session.Registry, logger arbor.ILogger, config *common.WebSocketConfig) *CanvasWebSocketHandler {
	h := &CanvasWebSocketHandler{
		registry:         registry,
		logger:           logger,
		readLimit:        4096,
		serverInstanceID: uuid.New().String(),
	}

	if config != nil {
		if config.ReadLimit > 0 {
			h.readLimit = config.ReadLimit
		}
		if interval, err := common.ParseDuration(config.FrameInterval); err != nil {
			logger.Warn().
				Err(err).
				Str("frame_interval", config.FrameInterval).
				Msg("Invalid frame interval, frames will not be throttled")
		} else {
			h.frameInterval = interval
		}
	}

	logger.Debug().
		Str("server_instance_id", h.serverInstanceID).
		Str("frame_interval", h.frameInterval.String()).
		Msg("Canvas WebSocket handler initialized")
	return h
}

// wsClient serialises writes to one connection
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// HandleWebSocket serves GET /ws. An existing session can be attached with
// ?session=<id>; otherwise a session is created for the connection and
// removed when it closes.
func (h *CanvasWebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, owned, err := h.sessionFor(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		if owned {
			h.registry.Remove(sess.ID())
		}
		return
	}
	conn.SetReadLimit(h.readLimit)

	client := &wsClient{conn: conn}
	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup

	logger := h.logger.WithCorrelationId(sess.ID())
	logger.Debug().Bool("owned", owned).Msg("WebSocket client connected")

	defer func() {
		cancel()
		wg.Wait()
		conn.Close()
		if owned {
			h.registry.Remove(sess.ID())
		}
		logger.Debug().Msg("WebSocket client disconnected")
	}()

	if err := client.send(WSMessage{Type: "hello", Payload: HelloMessage{SessionID: sess.ID(), ServerInstanceID: h.serverInstanceID}}); err != nil {
		return
	}
	if err := client.send(WSMessage{Type: "frame", Payload: sess.Frame()}); err != nil {
		return
	}

	pending := make(chan session.Frame, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer conn.Close() // unblocks the read loop when a write fails
		defer cancel()
		h.writeFrames(ctx, client, sess, pending, logger)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var event session.Event
		if err := json.Unmarshal(data, &event); err != nil {
			client.send(WSMessage{Type: "error", Payload: map[string]string{"error": "malformed event: " + err.Error()}})
			continue
		}

		frame, err := sess.Apply(event)
		if err != nil {
			if !errors.Is(err, session.ErrUnknownEvent) {
				logger.Debug().Err(err).Str("event", event.Type).Msg("Event rejected")
			}
			client.send(WSMessage{Type: "error", Payload: map[string]string{"error": err.Error()}})
			continue
		}
		if frame.Changed {
			offerFrame(pending, frame)
		}
	}
}

func (h *CanvasWebSocketHandler) sessionFor(r *http.Request) (*session.Session, bool, error) {
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err := h.registry.Get(id)
		if err != nil {
			return nil, false, err
		}
		return sess, false, nil
	}
	return h.registry.Create(), true, nil
}

// writeFrames pushes the newest pending frame at most once per frame
// interval, and a fresh frame whenever the session's runs are replaced.
func (h *CanvasWebSocketHandler) writeFrames(ctx context.Context, client *wsClient, sess *session.Session, pending chan session.Frame, logger arbor.ILogger) {
	var limiter *rate.Limiter
	if h.frameInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(h.frameInterval), 1)
	}

	for {
		var frame session.Frame
		select {
		case <-ctx.Done():
			return
		case frame = <-pending:
		case <-sess.Updated():
			frame = sess.Frame()
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		// Frames that arrived while throttled replace the one being held,
		// unless they predate it
		select {
		case queued := <-pending:
			if queued.Seq > frame.Seq {
				frame = queued
			}
		default:
		}

		if err := client.send(WSMessage{Type: "frame", Payload: frame}); err != nil {
			logger.Debug().Err(err).Msg("Failed to send frame")
			return
		}
	}
}

// offerFrame replaces any unsent frame with f. Single producer only.
func offerFrame(pending chan session.Frame, f session.Frame) {
	for {
		select {
		case pending <- f:
			return
		default:
		}
		select {
		case <-pending:
		default:
		}
	}
}
