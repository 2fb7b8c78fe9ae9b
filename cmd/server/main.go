package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sketchchain/backend/internal"
	"github.com/sketchchain/backend/internal/archive"
	"github.com/sketchchain/backend/internal/config"
	"github.com/sketchchain/backend/internal/game"
	"github.com/sketchchain/backend/internal/ledger/arweave"
	"github.com/sketchchain/backend/internal/ledger/evm"
	"github.com/sketchchain/backend/internal/server"
	"github.com/sketchchain/backend/internal/settlement"
	"github.com/sketchchain/backend/internal/transport"
	"github.com/sketchchain/backend/internal/wordbank"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, managerIdentity, err := newLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var store archive.Store = archive.Discard{}
	if cfg.DatabaseURL != "" {
		pg, err := archive.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		logger.Info("game archive enabled")
	}

	hub := transport.NewHub(logger)
	coord := settlement.NewCoordinator(ledger, hub, logger)

	// The registry is wired after the OnEnded closure that captures it;
	// sessions only end after being created through the registry.
	var registry *game.Registry
	onEnded := func(g internal.FinishedGame) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			out := coord.Settle(ctx, g)

			rec := archive.Record{
				RoomCode:    g.RoomCode,
				Winner:      out.Winner,
				Scores:      g.Scores,
				PlayerCount: len(g.Players),
				WagerAmount: g.WagerAmount,
				TotalPrize:  out.Prize,
				Settlement:  string(out.Status),
				Reason:      out.Reason,
				TxHandle:    out.Handle,
				EndedAt:     time.Now().UTC(),
			}
			if err := store.SaveGame(ctx, rec); err != nil {
				logger.Warn("archive write failed",
					zap.String("room", g.RoomCode),
					zap.Error(err))
			}

			registry.Remove(g.RoomCode)
		}()
	}

	registry = game.NewRegistry(game.SessionDeps{
		Words:   wordbank.New(nil),
		Sched:   game.TickerScheduler{},
		Sink:    hub,
		OnEnded: onEnded,
		Logger:  logger,
	})

	wsHandler := transport.NewHandler(hub, registry, logger)
	srv := server.New(cfg.Addr(), registry, wsHandler, ledger, store, managerIdentity, logger).HTTPServer()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapCfg.Build()
}

func newLedger(ctx context.Context, cfg config.Config, logger *zap.Logger) (settlement.Ledger, string, error) {
	switch cfg.LedgerBackend {
	case config.BackendEVM:
		client, err := evm.New(ctx, evm.Config{
			RPCURL:          cfg.RPCURL,
			ContractAddress: cfg.ContractAddress,
			PrivateKey:      cfg.GameManagerKey,
			ChainID:         cfg.ChainID,
		}, logger)
		if err != nil {
			return nil, "", fmt.Errorf("init evm ledger: %w", err)
		}
		return client, client.Wallet(), nil
	case config.BackendArweave:
		client := arweave.New(arweave.Config{
			GatewayURL:    cfg.ArweaveGatewayURL,
			ContractID:    cfg.ArweaveContractID,
			WalletAddress: cfg.ArweaveWallet,
		}, logger)
		return client, cfg.ArweaveWallet, nil
	default:
		logger.Warn("no ledger configured, games settle off-chain only")
		return settlement.Disabled{}, "", nil
	}
}
