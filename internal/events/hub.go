// Package events pushes library change notifications to connected browsers
// over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Event types broadcast by the services.
const (
	PDFUploaded       = "pdf_uploaded"
	PDFDeleted        = "pdf_deleted"
	PDFProcessed      = "pdf_processed"
	FolderCreated     = "folder_created"
	FolderUpdated     = "folder_updated"
	FolderDeleted     = "folder_deleted"
	AnnotationCreated = "annotation_created"
	AnnotationUpdated = "annotation_updated"
	AnnotationDeleted = "annotation_deleted"
)

// Message is the envelope written to every client.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// Hub tracks connected clients and fans broadcasts out to them. All map
// access happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("event client registered", "username", c.username, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("event client unregistered", "username", c.username, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than block everyone.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Subscribe registers a listener that is not a WebSocket, such as a
// server-sent event stream. The channel is closed when the hub drops the
// subscriber or stops. ok is false if the hub has already stopped.
func (h *Hub) Subscribe(username string) (msgs <-chan []byte, cancel func(), ok bool) {
	c := &Client{hub: h, send: make(chan []byte, 256), username: username}
	select {
	case h.register <- c:
	case <-h.done:
		return nil, func() {}, false
	}

	cancel = func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}
	return c.send, cancel, true
}

// Publish broadcasts an event. It never blocks the caller; events are
// dropped when the hub is saturated.
func (h *Hub) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode event payload failed", "type", eventType, "error", err)
		return
	}
	msg, err := json.Marshal(Message{Type: eventType, Payload: data, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Warn("encode event failed", "type", eventType, "error", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("event dropped, hub saturated", "type", eventType)
	}
}
