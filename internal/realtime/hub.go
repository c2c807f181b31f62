package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/types"
)

// outboundBuffer bounds the per-subscriber hand-off. A subscriber that falls
// this far behind starts losing messages instead of stalling ingestion.
const outboundBuffer = 64

var ErrHubClosed = errors.New("realtime hub is shut down")

// Client is one registered subscriber. It owns no domain data; it only
// receives copies through Outbound.
type Client struct {
	ID       uuid.UUID
	Outbound chan Message
	done     chan struct{}
}

// Hub fans traffic updates out to all registered subscribers. Registration
// and publishing serialize on the hub lock, so the initial snapshot a new
// subscriber gets is always older than any update it later receives.
type Hub struct {
	log      *logger.Logger
	snapshot func() []types.LocationState

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	closed  bool
}

// NewHub builds a hub. snapshot is consulted at registration time to seed
// each new subscriber; it must return a consistent copy of all states.
func NewHub(log *logger.Logger, snapshot func() []types.LocationState) *Hub {
	return &Hub{
		log:      log.With("component", "TrafficHub"),
		snapshot: snapshot,
		clients:  make(map[uuid.UUID]*Client),
	}
}

// Register adds a subscriber and queues its initial snapshot before any
// subsequent publish can reach it.
func (h *Hub) Register() (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	client := &Client{
		ID:       uuid.New(),
		Outbound: make(chan Message, outboundBuffer),
		done:     make(chan struct{}),
	}
	// The buffer of a fresh channel always has room for the snapshot.
	client.Outbound <- Message{Type: MessageInitialStateSnapshot, Payload: h.snapshot()}
	h.clients[client.ID] = client

	h.log.Debug("Subscriber registered", "client_id", client.ID)
	return client, nil
}

// Deregister removes a subscriber and releases its channels. It is
// idempotent; deregistering an unknown or already-removed client is a no-op.
func (h *Hub) Deregister(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.done)
	close(client.Outbound)
	h.log.Debug("Subscriber deregistered", "client_id", client.ID)
}

// Publish delivers the raw event and the state it produced to every
// registered subscriber. It is called strictly after the store mutation has
// committed. Delivery is per-subscriber isolated: a full outbound buffer
// drops the message for that subscriber only.
func (h *Hub) Publish(event types.TrafficEvent, state types.LocationState) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.send(client, Message{Type: MessageNewTrafficEvent, Payload: event})
		h.send(client, Message{Type: MessageLocationStateUpdate, Payload: state})
	}
}

// Broadcast delivers an already-built message to every subscriber. Used by
// the cross-instance bus to forward messages published elsewhere.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.send(client, msg)
	}
}

func (h *Hub) send(client *Client, msg Message) {
	select {
	case client.Outbound <- msg:
	default:
		h.log.Warn("Dropping realtime message; outbound buffer full",
			"client_id", client.ID, "type", msg.Type)
	}
}

// Shutdown closes every subscriber channel and refuses further
// registrations. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, client := range h.clients {
		close(client.done)
		close(client.Outbound)
		delete(h.clients, id)
	}
	h.log.Info("Realtime hub shut down")
}

// ServeHTTP streams a client's messages as server-sent events until the
// request context ends, the client is deregistered, or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Subscriber stream context done", "client_id", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-client.Outbound:
			if !open {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("Failed to marshal realtime message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
