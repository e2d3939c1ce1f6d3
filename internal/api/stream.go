package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/smartconfig/configurator-engine/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans session events out to WebSocket subscribers. It implements the
// session manager's Notifier interface.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan session.Event
}

// NewHub creates an empty stream hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers an event to every subscriber of the session. Slow
// subscribers drop events instead of blocking the caller.
func (h *Hub) Publish(sessionID string, event session.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[sessionID] {
		select {
		case sub.send <- event:
		default:
			slog.Debug("dropping stream event for slow subscriber", "session", sessionID)
		}
	}
}

// CloseSession disconnects all subscribers of a session
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	subs := h.subscribers[sessionID]
	delete(h.subscribers, sessionID)
	h.mu.Unlock()

	for sub := range subs {
		close(sub.send)
	}
}

func (h *Hub) subscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sessionID][sub] = struct{}{}
}

func (h *Hub) unsubscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[sessionID]; ok {
		if _, present := subs[sub]; present {
			delete(subs, sub)
			close(sub.send)
		}
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
}

// handleSessionStream upgrades to WebSocket and pushes step and state
// change events for the session
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err, "open session stream")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	sub := &subscriber{
		conn: conn,
		send: make(chan session.Event, 16),
	}
	s.hub.subscribe(sessionID, sub)
	defer s.hub.unsubscribe(sessionID, sub)

	slog.Info("session stream connected", "session", sessionID)

	// Initial event so the client can sync immediately
	if err := conn.WriteJSON(session.Event{
		Type:      "connected",
		Step:      sess.CurrentStep,
		UpdatedAt: sess.UpdatedAt,
	}); err != nil {
		return
	}

	done := make(chan struct{})

	// Reader: only to detect disconnects, the stream is one-way
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("stream read error", "session", sessionID, "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			slog.Info("session stream disconnected", "session", sessionID)
			return
		case event, ok := <-sub.send:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("failed to write stream event", "session", sessionID, "error", err)
				return
			}
		}
	}
}
