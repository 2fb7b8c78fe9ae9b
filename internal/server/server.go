// Package server exposes the HTTP surface: the websocket endpoint plus a
// small read-only REST API for room and settlement introspection.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal/archive"
	"github.com/sketchchain/backend/internal/game"
	"github.com/sketchchain/backend/internal/settlement"
	"github.com/sketchchain/backend/internal/transport"
)

type Server struct {
	addr     string
	registry *game.Registry
	ws       *transport.Handler
	ledger   settlement.Ledger
	store    archive.Store
	logger   *zap.Logger

	// managerIdentity is the configured settlement wallet, empty when the
	// ledger is disabled.
	managerIdentity string
}

func New(addr string, registry *game.Registry, ws *transport.Handler, ledger settlement.Ledger, store archive.Store, managerIdentity string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:            addr,
		registry:        registry,
		ws:              ws,
		ledger:          ledger,
		store:           store,
		logger:          logger,
		managerIdentity: managerIdentity,
	}
}

// HTTPServer builds the http.Server with sane timeouts. The websocket
// endpoint needs no write timeout, so only idle and read header are set.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// apiTimeout bounds ledger and database calls made from REST handlers.
func apiTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}
