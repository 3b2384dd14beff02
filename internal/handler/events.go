package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"valvx/internal/events"
	"valvx/internal/handler/sse"
	"valvx/internal/httputil"
)

// EventsHandler pushes library events over WebSocket or, for clients that
// cannot upgrade, server-sent events.
type EventsHandler struct {
	hub      *events.Hub
	upgrader *websocket.Upgrader
	config   *sse.Config
	logger   *slog.Logger
}

func NewEventsHandler(hub *events.Hub, upgrader *websocket.Upgrader, config *sse.Config, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		upgrader: upgrader,
		config:   config,
		logger:   logger,
	}
}

// ServeWS upgrades the connection and registers it with the hub
// GET /ws
func (h *EventsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Serve(h.upgrader, w, r, httputil.Username(r)); err != nil {
		// The upgrader has already written an error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
	}
}

// Stream sends events as text/event-stream until the client disconnects
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	msgs, cancel, ok := h.hub.Subscribe(httputil.Username(r))
	if !ok {
		respondFailure(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	defer cancel()

	writer, err := sse.NewWriter(w)
	if err != nil {
		respondFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	clientID := uuid.NewString()
	h.logger.Debug("sse client connected", "client_id", clientID, "username", httputil.Username(r))

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	stopped := keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("sse client disconnected", "client_id", clientID)
			return
		case <-stopped:
			return
		case msg, open := <-msgs:
			if !open {
				return
			}
			if err := writer.WriteEvent("message", msg); err != nil {
				h.logger.Debug("sse write failed", "client_id", clientID, "error", err)
				return
			}
		}
	}
}
