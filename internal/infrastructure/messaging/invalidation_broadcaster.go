// Package messaging pushes cache-invalidation hints to connected dashboards
// over websockets. Clients refetch the named resource when a hint arrives;
// the payload carries no data, only the key that went stale.
package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

// InvalidationHint names a resource that a write just made stale.
type InvalidationHint struct {
	Resource string `json:"resource"`
	ActorID  string `json:"actorId,omitempty"`
	At       int64  `json:"at"`
}

// Client is a single connected dashboard.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// InvalidationBroadcaster fans invalidation hints out to every connected
// client. Slow clients are dropped rather than allowed to block the hub.
type InvalidationBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	logger     *logging.ChanneledLogger
}

// NewInvalidationBroadcaster creates the hub. Call Run in its own goroutine.
func NewInvalidationBroadcaster(logger *logging.ChanneledLogger) *InvalidationBroadcaster {
	return &InvalidationBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and fan-out until Stop is called.
func (b *InvalidationBroadcaster) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.clients[client] = true
			b.logger.Realtime().Debug("Dashboard client connected", "clients", len(b.clients))

		case client := <-b.unregister:
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
				b.logger.Realtime().Debug("Dashboard client disconnected", "clients", len(b.clients))
			}

		case message := <-b.broadcast:
			for client := range b.clients {
				select {
				case client.Send <- message:
				default:
					delete(b.clients, client)
					close(client.Send)
				}
			}

		case <-ticker.C:
			ping := []byte(`{"type":"ping"}`)
			for client := range b.clients {
				select {
				case client.Send <- ping:
				default:
					delete(b.clients, client)
					close(client.Send)
				}
			}

		case <-b.done:
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Send)
			}
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (b *InvalidationBroadcaster) Stop() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Register adds a connected client to the hub.
func (b *InvalidationBroadcaster) Register(client *Client) {
	b.register <- client
}

// Unregister removes a client from the hub.
func (b *InvalidationBroadcaster) Unregister(client *Client) {
	b.unregister <- client
}

// BroadcastInvalidation publishes a hint for resource:actorID. Never blocks
// the write path; hints are dropped if the hub's buffer is full.
func (b *InvalidationBroadcaster) BroadcastInvalidation(resource, actorID string) {
	hint := InvalidationHint{
		Resource: resource,
		ActorID:  actorID,
		At:       time.Now().UTC().UnixMilli(),
	}

	payload, err := json.Marshal(hint)
	if err != nil {
		b.logger.Realtime().Error("Failed to marshal invalidation hint", "error", err.Error())
		return
	}

	select {
	case b.broadcast <- payload:
	default:
		b.logger.Realtime().Warn("Invalidation hint dropped, hub buffer full", "resource", resource)
	}
}
