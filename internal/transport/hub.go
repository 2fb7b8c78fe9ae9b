// Package transport carries game events over websockets. The Hub tracks
// live connections per room and fans session events out to them.
package transport

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal"
)

// conn wraps a websocket connection with a write lock. Gorilla permits
// one concurrent writer only, and broadcasts race with targeted sends.
type conn struct {
	id      string
	address string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub fans out events to the websockets joined to each room. It tolerates
// sends to rooms with no connections; settlement events can arrive after
// every player has disconnected.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*conn // room code -> address -> conn
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[string]*conn),
		logger: logger,
	}
}

// add registers a connection for an address. A reconnect supersedes the
// previous connection for the same address, which is closed here.
func (h *Hub) add(roomCode, address string, ws *websocket.Conn) *conn {
	c := &conn{id: uuid.NewString(), address: address, ws: ws}

	h.mu.Lock()
	room := h.rooms[roomCode]
	if room == nil {
		room = make(map[string]*conn)
		h.rooms[roomCode] = room
	}
	prev := room[address]
	room[address] = c
	h.mu.Unlock()

	if prev != nil {
		h.logger.Info("connection superseded",
			zap.String("room", roomCode),
			zap.String("address", address))
		prev.ws.Close()
	}
	return c
}

// remove drops a connection. It reports false when the registered
// connection is a newer one, so a superseded connection's teardown does
// not evict the player from the game.
func (h *Hub) remove(roomCode, address, connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[roomCode]
	if room == nil {
		return false
	}
	c, ok := room[address]
	if !ok || c.id != connID {
		return false
	}
	delete(room, address)
	if len(room) == 0 {
		delete(h.rooms, roomCode)
	}
	return true
}

// Send implements internal.EventSink.
func (h *Hub) Send(roomCode string, ev internal.Event) {
	h.mu.RLock()
	room := h.rooms[roomCode]
	targets := make([]*conn, 0, len(room))
	for addr, c := range room {
		if ev.Target != "" && addr != ev.Target {
			continue
		}
		if ev.Exclude != "" && addr == ev.Exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	msg := internal.Message[any]{Type: ev.Type, Data: ev.Data}
	for _, c := range targets {
		if err := c.writeJSON(msg); err != nil {
			h.logger.Warn("write failed",
				zap.String("room", roomCode),
				zap.String("address", c.address),
				zap.String("type", ev.Type),
				zap.Error(err))
		}
	}
}
