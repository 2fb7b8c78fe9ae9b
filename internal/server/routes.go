package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal/settlement"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/ws/{roomCode}", s.ws)
	r.HandleFunc("/api/room/{roomCode}", s.handleRoom).Methods(http.MethodGet)
	r.HandleFunc("/api/game-manager", s.handleGameManager).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// Websocket upgrades carry their own handshake; skip preflight logic.
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoom returns the on-ledger view of a room. Live session state is
// intentionally not exposed here; clients get that over the websocket.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomCode"]

	ctx, cancel := apiTimeout(r)
	defer cancel()

	rec, err := s.ledger.RoomRecord(ctx, roomCode)
	if err != nil {
		if errors.Is(err, settlement.ErrLedgerDisabled) {
			s.writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no ledger configured"})
			return
		}
		s.logger.Warn("room lookup failed", zap.String("room", roomCode), zap.Error(err))
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger lookup failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"room_code":    roomCode,
		"creator":      rec.Creator,
		"wager_amount": rec.WagerAmount,
		"participants": rec.Participants,
		"is_active":    rec.IsActive,
		"game_ended":   rec.GameEnded,
	})
}

func (s *Server) handleGameManager(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := apiTimeout(r)
	defer cancel()

	authorized, err := s.ledger.IsAuthorized(ctx)
	if err != nil && !errors.Is(err, settlement.ErrLedgerDisabled) {
		s.logger.Warn("authorization check failed", zap.Error(err))
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger lookup failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"address":    s.managerIdentity,
		"authorized": authorized,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"active_rooms": s.registry.Count()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := apiTimeout(r)
	defer cancel()

	games, err := s.store.RecentGames(ctx, limit)
	if err != nil {
		s.logger.Warn("history lookup failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history lookup failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encoding failed", zap.Error(err))
	}
}
