package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/messaging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 512
)

// RealtimeHandlers upgrades dashboard connections onto the invalidation hub.
type RealtimeHandlers struct {
	broadcaster *messaging.InvalidationBroadcaster
	sessions    *services.SessionService
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewRealtimeHandlers creates the websocket handlers. Origin checking is
// delegated to the CORS layer; the upgrader accepts what got this far.
func NewRealtimeHandlers(broadcaster *messaging.InvalidationBroadcaster, sessions *services.SessionService, logger *logging.ChanneledLogger) *RealtimeHandlers {
	return &RealtimeHandlers{
		broadcaster: broadcaster,
		sessions:    sessions,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// GetStream handles GET /ws. The bearer token may arrive as a query
// parameter because browsers cannot set headers on websocket dials.
func (h *RealtimeHandlers) GetStream(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		token = c.Query("token")
	}
	if h.sessions.Resolve(c.Request.Context(), token) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Realtime().Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.Client{Conn: conn, Send: make(chan []byte, 16)}
	h.broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel onto the wire. It exits when
// the hub closes the channel.
func (h *RealtimeHandlers) writePump(client *messaging.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; the stream is one-way. Its job is to
// notice the disconnect and unregister the client.
func (h *RealtimeHandlers) readPump(client *messaging.Client) {
	defer func() {
		h.broadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
