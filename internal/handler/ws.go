package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API already serves permissive CORS for the single-page UI.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ProfileSocket handles GET /ws/users/{id}/profile: streams the profile
// document to the client, first the current state and then every change,
// until the client disconnects.
func (h *Handler) ProfileSocket(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}
	userID := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already wrote the error response.
	}

	updates := make(chan any, 16)
	unsub, err := h.store.SubscribeProfile(r.Context(), userID, func(p model.UserProfile) {
		select {
		case updates <- p:
		default:
			// Client is not keeping up; skip this snapshot, the next change
			// carries full state anyway.
		}
	})
	if err != nil {
		h.logger.Error().Err(err).Str("user", userID).Msg("profile subscription failed")
		_ = conn.Close()
		return
	}

	h.stream(conn, updates, unsub)
}

// ConnectionsSocket handles GET /ws/events/{id}/connections: streams the full
// interest-connection list for the event on every change.
func (h *Handler) ConnectionsSocket(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}
	eventID := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	updates := make(chan any, 16)
	unsub, err := h.store.SubscribeConnections(r.Context(), eventID, func(conns []model.Connection) {
		select {
		case updates <- conns:
		default:
		}
	})
	if err != nil {
		h.logger.Error().Err(err).Str("event", eventID).Msg("connections subscription failed")
		_ = conn.Close()
		return
	}

	h.stream(conn, updates, unsub)
}

// stream pushes queued snapshots to the websocket until the peer closes.
// Unsubscribing before the connection is torn down guarantees no callback
// fires against a closed channel consumer.
func (h *Handler) stream(conn *websocket.Conn, updates chan any, unsub func()) {
	defer func() {
		unsub()
		_ = conn.Close()
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case v := <-updates:
			if err := conn.WriteJSON(v); err != nil {
				return
			}
		}
	}
}
