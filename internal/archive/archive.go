// Package archive persists finished games for the history view. In-flight
// games are never persisted; a crash loses them by design.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one finished game as archived.
type Record struct {
	ID          uuid.UUID      `json:"id"`
	RoomCode    string         `json:"room_code"`
	Winner      string         `json:"winner"`
	Scores      map[string]int `json:"scores"`
	PlayerCount int            `json:"player_count"`
	WagerAmount string         `json:"wager_amount"`
	TotalPrize  string         `json:"total_prize"`
	Settlement  string         `json:"settlement"` // confirmed | skipped | failed
	Reason      string         `json:"reason,omitempty"`
	TxHandle    string         `json:"tx_handle,omitempty"`
	EndedAt     time.Time      `json:"ended_at"`
}

type Store interface {
	SaveGame(ctx context.Context, rec Record) error
	RecentGames(ctx context.Context, limit int) ([]Record, error)
}

// Discard satisfies Store for deployments without a database.
type Discard struct{}

func (Discard) SaveGame(context.Context, Record) error { return nil }

func (Discard) RecentGames(context.Context, int) ([]Record, error) { return nil, nil }
