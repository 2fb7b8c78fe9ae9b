package settlement

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal"
)

// Status is the terminal settlement outcome for one game.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome summarizes how a game settled, for archival.
type Outcome struct {
	RoomCode string
	Winner   string
	Prize    string
	Status   Status
	Reason   string
	Handle   string
}

// DefaultFinalityTimeout bounds how long a confirmation wait may hold up
// reporting before the transaction is declared failed.
const DefaultFinalityTimeout = 2 * time.Minute

// Coordinator executes the settlement protocol for finished games. It runs
// off every room's serialized event path; a hung ledger call can never
// stall guess or tick processing.
type Coordinator struct {
	ledger          Ledger
	sink            internal.EventSink
	logger          *zap.Logger
	finalityTimeout time.Duration
}

type Option func(*Coordinator)

// WithFinalityTimeout overrides the confirmation-wait ceiling.
func WithFinalityTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.finalityTimeout = d }
}

func NewCoordinator(ledger Ledger, sink internal.EventSink, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		ledger:          ledger,
		sink:            sink,
		logger:          logger,
		finalityTimeout: DefaultFinalityTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settle resolves the winner and prize, runs the guard sequence against the
// ledger, and issues the payout with one priority-bumped retry. The
// room-visible gameEnd event goes out first and exactly once; no ledger
// fault can delay or suppress it. All faults resolve to one of the four
// transaction outcome events.
func (c *Coordinator) Settle(ctx context.Context, g internal.FinishedGame) Outcome {
	winner := Winner(g)
	prize := TotalPrize(g.WagerAmount, len(g.Players))
	logger := c.logger.With(zap.String("room", g.RoomCode))

	c.sink.Send(g.RoomCode, internal.BroadcastEvent(internal.EventGameEnd, internal.GameEndData{
		Winner:     winner,
		Scores:     g.Scores,
		TotalPrize: prize.String(),
	}))

	out := Outcome{RoomCode: g.RoomCode, Winner: winner, Prize: prize.String()}

	if winner == "" {
		return c.skip(logger, out, "no winner determined")
	}
	if prize.Sign() == 0 {
		return c.skip(logger, out, "prize amount is zero")
	}

	authorized, err := c.ledger.IsAuthorized(ctx)
	if err != nil {
		logger.Warn("authorization check failed", zap.Error(err))
		return c.skip(logger, out, "ledger unavailable")
	}
	if !authorized {
		return c.skip(logger, out, "not authorized")
	}

	record, err := c.ledger.RoomRecord(ctx, g.RoomCode)
	if err != nil {
		// The record is advisory; the payout call is still attempted.
		logger.Warn("room record lookup failed", zap.Error(err))
	} else {
		if record.GameEnded {
			return c.skip(logger, out, "already settled")
		}
		if !record.IsActive {
			return c.skip(logger, out, "room is not active")
		}
		if !containsFold(record.Participants, winner) && record.Creator != "" {
			logger.Warn("winner not recognized by ledger, substituting creator",
				zap.String("winner", winner),
				zap.String("creator", record.Creator))
			winner = record.Creator
			out.Winner = winner
		}
	}

	handle, err := c.ledger.Settle(ctx, g.RoomCode, winner, PriorityNormal)
	if err != nil {
		logger.Warn("settle attempt failed, retrying with bumped priority", zap.Error(err))
		handle, err = c.ledger.Settle(ctx, g.RoomCode, winner, PriorityHigh)
	}
	if err != nil {
		return c.fail(logger, out, err.Error())
	}
	out.Handle = handle

	c.sink.Send(g.RoomCode, internal.BroadcastEvent(internal.EventTxSubmitted, internal.TxSubmittedData{
		Winner:          winner,
		TransactionHash: handle,
		GameCode:        g.RoomCode,
	}))
	logger.Info("settlement submitted", zap.String("handle", handle))

	fctx, cancel := context.WithTimeout(ctx, c.finalityTimeout)
	defer cancel()
	success, err := c.ledger.AwaitFinality(fctx, handle)
	if err != nil {
		return c.fail(logger, out, "finality wait failed: "+err.Error())
	}
	if !success {
		return c.fail(logger, out, "transaction completed but failed")
	}

	c.sink.Send(g.RoomCode, internal.BroadcastEvent(internal.EventTxConfirmed, internal.TxConfirmedData{
		Winner:          winner,
		TransactionHash: handle,
		GameCode:        g.RoomCode,
	}))
	logger.Info("settlement confirmed", zap.String("handle", handle))
	out.Status = StatusConfirmed
	return out
}

func (c *Coordinator) skip(logger *zap.Logger, out Outcome, reason string) Outcome {
	logger.Info("settlement skipped", zap.String("reason", reason))
	c.sink.Send(out.RoomCode, internal.BroadcastEvent(internal.EventTxSkipped, internal.TxSkippedData{
		Reason:   reason,
		GameCode: out.RoomCode,
	}))
	out.Status = StatusSkipped
	out.Reason = reason
	return out
}

func (c *Coordinator) fail(logger *zap.Logger, out Outcome, reason string) Outcome {
	logger.Warn("settlement failed", zap.String("reason", reason))
	c.sink.Send(out.RoomCode, internal.BroadcastEvent(internal.EventTxFailed, internal.TxFailedData{
		Error:    reason,
		GameCode: out.RoomCode,
	}))
	out.Status = StatusFailed
	out.Reason = reason
	return out
}

// Addresses compare case-insensitively; EVM checksum casing varies.
func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
