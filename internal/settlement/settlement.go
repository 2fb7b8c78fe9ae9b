// Package settlement turns a finished game into a payout request against
// the external ledger, guarding against double settlement and surfacing
// every outcome to the room as an event.
package settlement

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/sketchchain/backend/internal"
)

// Priority selects the fee level for a settle call. The retry after a
// transient failure bumps to PriorityHigh to counter underpricing.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// RoomRecord is the ledger's own view of a room.
type RoomRecord struct {
	Creator      string
	WagerAmount  string
	Participants []string
	IsActive     bool
	GameEnded    bool
}

// Ledger is the external value-transfer service. Implementations may fail,
// stall, or double-execute; the coordinator owns retries and idempotency.
type Ledger interface {
	IsAuthorized(ctx context.Context) (bool, error)
	RoomRecord(ctx context.Context, roomCode string) (RoomRecord, error)
	// Settle requests the payout and returns an opaque transaction handle.
	Settle(ctx context.Context, roomCode, winner string, prio Priority) (string, error)
	// AwaitFinality blocks until the transaction identified by handle is
	// final, returning whether it succeeded. It must honor ctx cancellation.
	AwaitFinality(ctx context.Context, handle string) (bool, error)
}

// ErrLedgerDisabled is returned by the Disabled ledger for every call.
var ErrLedgerDisabled = errors.New("ledger disabled")

// Disabled is the Ledger used when no backend is configured; every game
// settles as skipped.
type Disabled struct{}

func (Disabled) IsAuthorized(context.Context) (bool, error) {
	return false, ErrLedgerDisabled
}

func (Disabled) RoomRecord(context.Context, string) (RoomRecord, error) {
	return RoomRecord{}, ErrLedgerDisabled
}

func (Disabled) Settle(context.Context, string, string, Priority) (string, error) {
	return "", ErrLedgerDisabled
}

func (Disabled) AwaitFinality(context.Context, string) (bool, error) {
	return false, ErrLedgerDisabled
}

// Winner picks the payout recipient: the strictly highest score, ties going
// to the earliest joiner. When nobody scored, the room-creating first
// player wins by default. Empty rosters have no winner.
func Winner(g internal.FinishedGame) string {
	if len(g.Players) == 0 {
		return ""
	}
	best := ""
	bestScore := 0
	for _, p := range g.Players {
		if s := g.Scores[p.Address]; s > bestScore {
			best, bestScore = p.Address, s
		}
	}
	if best == "" {
		return g.Players[0].Address
	}
	return best
}

// TotalPrize computes wager × playerCount in the integer domain.
// Token-denominated amounts never touch floating point. An absent, zero,
// negative, or malformed wager yields zero, which settlement skips.
func TotalPrize(wager string, playerCount int) *big.Int {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(wager), 10)
	if !ok || amount.Sign() <= 0 || playerCount <= 0 {
		return new(big.Int)
	}
	return amount.Mul(amount, big.NewInt(int64(playerCount)))
}
