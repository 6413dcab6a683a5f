// Package live fans status and client updates out to websocket subscribers.
package live

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/pkg/utils"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// SnapshotFunc returns the events a new subscriber receives before any broadcast.
type SnapshotFunc func() []model.Event

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan model.Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

type Hub struct {
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[string]*subscriber
	closed bool
}

func NewHub(snapshot SnapshotFunc, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		snapshot: snapshot,
		logger:   logger.With("component", "live"),
		subs:     map[string]*subscriber{},
	}
}

// Broadcast queues an event for every subscriber. A subscriber whose queue is
// full is disconnected rather than allowed to stall the others.
func (h *Hub) Broadcast(kind string, payload any) {
	evt := model.Event{Type: kind, Data: payload, At: utils.NowUTC()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		select {
		case sub.send <- evt:
		default:
			h.logger.Warn("dropping slow subscriber", "subscriber", id)
			delete(h.subs, id)
			sub.close()
		}
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.close()
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err, "remote_addr", r.RemoteAddr)
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn, send: make(chan model.Event, sendBuffer)}
	if h.snapshot != nil {
		for _, evt := range h.snapshot() {
			sub.send <- evt
		}
	}
	if !h.register(sub) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeTimeout))
		_ = conn.Close()
		return
	}
	h.logger.Debug("subscriber connected", "subscriber", sub.id, "remote_addr", r.RemoteAddr)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) register(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub.id] = sub
	return true
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
		sub.close()
	}
}

// readLoop only exists to notice the peer going away and to answer pongs.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.unregister(sub)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("subscriber read failed", "subscriber", sub.id, "err", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()
	for {
		select {
		case evt, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteJSON(evt); err != nil {
				h.logger.Debug("subscriber write failed", "subscriber", sub.id, "err", err)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
