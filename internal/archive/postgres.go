package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS finished_games (
	id           UUID PRIMARY KEY,
	room_code    TEXT NOT NULL,
	winner       TEXT NOT NULL,
	scores       JSONB NOT NULL,
	player_count INT NOT NULL,
	wager_amount TEXT NOT NULL,
	total_prize  TEXT NOT NULL,
	settlement   TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	tx_handle    TEXT NOT NULL DEFAULT '',
	ended_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS finished_games_ended_at_idx ON finished_games (ended_at DESC);
`

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) SaveGame(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO finished_games
			(id, room_code, winner, scores, player_count, wager_amount, total_prize, settlement, reason, tx_handle, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.RoomCode, rec.Winner, scores, rec.PlayerCount,
		rec.WagerAmount, rec.TotalPrize, rec.Settlement, rec.Reason, rec.TxHandle, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("insert finished game: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentGames(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_code, winner, scores, player_count, wager_amount, total_prize, settlement, reason, tx_handle, ended_at
		FROM finished_games
		ORDER BY ended_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query finished games: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var scores []byte
		if err := rows.Scan(&rec.ID, &rec.RoomCode, &rec.Winner, &scores, &rec.PlayerCount,
			&rec.WagerAmount, &rec.TotalPrize, &rec.Settlement, &rec.Reason, &rec.TxHandle, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("scan finished game: %w", err)
		}
		if err := json.Unmarshal(scores, &rec.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
