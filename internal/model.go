package internal

import (
	"time"
)

const (
	// RoundDuration is the drawing time per round, in seconds.
	RoundDuration = 90

	// TotalRounds bounds how many distinct players draw before the game ends.
	// A game with fewer players than this ends once everyone has drawn.
	TotalRounds = 3

	MinPlayersToStart = 2
	MaxPlayersPerRoom = 8

	// GraceDelay is the pause between a round ending and the next one starting.
	GraceDelay = 3 * time.Second
)

// SessionState is the lifecycle state of one room's game session.
type SessionState string

const (
	StateLobby       SessionState = "lobby"
	StateRoundActive SessionState = "round_active"
	StateRoundEnding SessionState = "round_ending"
	StateEnded       SessionState = "ended"
)

// Player is a wallet-identified participant. Address is the unique key
// within a session; insertion order doubles as turn-rotation order.
type Player struct {
	Address  string    `json:"address"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type ChatKind string

const (
	ChatKindChat    ChatKind = "chat"
	ChatKindGuess   ChatKind = "guess"
	ChatKindCorrect ChatKind = "correct"
	ChatKindSystem  ChatKind = "system"
)

type ChatEntry struct {
	Author    string   `json:"author"`
	Text      string   `json:"text"`
	Kind      ChatKind `json:"kind"`
	Timestamp int64    `json:"timestamp_ms"`
}

// Stroke is one line segment of the current round's drawing.
type Stroke struct {
	FromX float64 `json:"x0"`
	FromY float64 `json:"y0"`
	ToX   float64 `json:"x1"`
	ToY   float64 `json:"y1"`
	Color string  `json:"color"`
	Width float64 `json:"brush_size"`
}

// FinishedGame is the immutable snapshot of a session that reached Ended,
// handed to settlement and archival. Players preserve join order so that
// winner tie-breaking stays deterministic after the session is destroyed.
type FinishedGame struct {
	RoomCode    string
	Players     []Player
	Scores      map[string]int
	WagerAmount string
}
