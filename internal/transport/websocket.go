package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal"
	"github.com/sketchchain/backend/internal/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades websocket requests and routes inbound messages to the
// game registry.
type Handler struct {
	hub      *Hub
	registry *game.Registry
	logger   *zap.Logger
}

func NewHandler(hub *Hub, registry *game.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, registry: registry, logger: logger}
}

// ServeHTTP handles GET /ws/{roomCode}?address=0x..&name=Alice.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomCode"]
	address := r.URL.Query().Get("address")
	name := r.URL.Query().Get("name")
	if roomCode == "" || address == "" {
		http.Error(w, "room code and address are required", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := h.hub.add(roomCode, address, ws)

	session := h.registry.GetOrCreate(roomCode)
	if err := session.Join(address, name); err != nil {
		if errors.Is(err, game.ErrRoomFull) {
			_ = c.writeJSON(internal.Message[internal.ErrorData]{
				Type: internal.EventError,
				Data: internal.ErrorData{Message: "Room is full"},
			})
		}
		h.hub.remove(roomCode, address, c.id)
		ws.Close()
		return
	}

	h.logger.Info("player connected",
		zap.String("room", roomCode),
		zap.String("address", address))

	go h.readLoop(c, roomCode, address, session)
}

func (h *Handler) readLoop(c *conn, roomCode, address string, session *game.Session) {
	defer func() {
		c.ws.Close()
		// A superseded connection must not evict the player; the newer
		// connection owns the registration now.
		if h.hub.remove(roomCode, address, c.id) {
			h.registry.Leave(roomCode, address)
			h.logger.Info("player disconnected",
				zap.String("room", roomCode),
				zap.String("address", address))
		}
	}()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn("malformed message",
				zap.String("room", roomCode),
				zap.String("address", address),
				zap.Error(err))
			continue
		}

		switch msg.Type {
		case "setWagerAmount":
			var amount string
			if err := json.Unmarshal(msg.Data, &amount); err != nil {
				continue
			}
			session.SetWager(amount)
		case "startGame":
			session.Start(address)
		case "guess":
			var text string
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				continue
			}
			session.Guess(address, text)
		case "draw":
			var data internal.DrawUpdateData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				continue
			}
			session.Draw(address, data.Strokes)
		case "chatMessage":
			var text string
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				continue
			}
			session.Chat(address, text)
		default:
			h.logger.Debug("unknown message type",
				zap.String("room", roomCode),
				zap.String("type", msg.Type))
		}
	}
}
