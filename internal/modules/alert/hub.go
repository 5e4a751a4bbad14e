package alert

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans alert events out to every connected operator session.
type Hub struct {
	connections map[int64]*websocket.Conn
	mutex       sync.RWMutex
	loggerf     func(format string, args ...interface{})
}

func NewHub(loggerf func(format string, args ...interface{})) *Hub {
	return &Hub{
		connections: make(map[int64]*websocket.Conn),
		loggerf:     loggerf,
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[userID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[userID] = conn
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.connections[userID]; exists && conn != nil {
		_ = conn.Close()
		delete(h.connections, userID)
	}
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

// Broadcast sends the envelope to every session and drops sessions
// whose writes fail.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	envelope := map[string]interface{}{
		"type":    kind,
		"payload": payload,
		"sent_at": time.Now().UTC(),
	}

	h.mutex.RLock()
	targets := make(map[int64]*websocket.Conn, len(h.connections))
	for id, conn := range h.connections {
		targets[id] = conn
	}
	h.mutex.RUnlock()

	for id, conn := range targets {
		if conn == nil {
			continue
		}
		if err := conn.WriteJSON(envelope); err != nil {
			h.logf("alert: dropping operator session %d: %v", id, err)
			h.Unregister(id)
		}
	}
}

func (h *Hub) OverbookingDetected(ev OverbookingEvent) {
	h.logf("alert: overbooking on resource %d, reservation %d conflicts with %v", ev.ResourceID, ev.ReservationID, ev.BlockingIDs)
	h.Broadcast("overbooking_detected", ev)
}

func (h *Hub) ChannelCancellationBlocked(ev CancellationBlockedEvent) {
	h.logf("alert: channel %d cancellation blocked for checked-in reservation %s", ev.ChannelID, ev.Reference)
	h.Broadcast("channel_cancellation_blocked", ev)
}

func (h *Hub) SyncDeliveryFailed(ev SyncFailedEvent) {
	h.logf("alert: sync event %d to channel %d failed permanently: %s", ev.EventID, ev.ChannelID, ev.LastError)
	h.Broadcast("sync_delivery_failed", ev)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, id)
	}
}

func (h *Hub) logf(format string, args ...interface{}) {
	if h.loggerf != nil {
		h.loggerf(format, args...)
	}
}
