package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/sketchchain/backend/internal"
)

func player(addr string, joinedOffset time.Duration) internal.Player {
	return internal.Player{Address: addr, JoinedAt: time.Unix(0, 0).Add(joinedOffset)}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name string
		game internal.FinishedGame
		want string
	}{
		{
			name: "highest score wins",
			game: internal.FinishedGame{
				Players: []internal.Player{player("a", 0), player("b", time.Second)},
				Scores:  map[string]int{"a": 50, "b": 100},
			},
			want: "b",
		},
		{
			name: "tie goes to earliest joiner",
			game: internal.FinishedGame{
				Players: []internal.Player{player("a", 0), player("b", time.Second)},
				Scores:  map[string]int{"a": 100, "b": 100},
			},
			want: "a",
		},
		{
			name: "nobody scored defaults to first player",
			game: internal.FinishedGame{
				Players: []internal.Player{player("a", 0), player("b", time.Second)},
				Scores:  map[string]int{},
			},
			want: "a",
		},
		{
			name: "empty roster has no winner",
			game: internal.FinishedGame{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Winner(tt.game))
		})
	}
}

func TestWinnerIsAlwaysAPlayer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "players")
		g := internal.FinishedGame{Scores: map[string]int{}}
		for i := 0; i < n; i++ {
			addr := rapid.StringMatching(`0x[0-9a-f]{8}`).Draw(t, "addr")
			g.Players = append(g.Players, player(addr, time.Duration(i)*time.Second))
			g.Scores[addr] = rapid.IntRange(0, 300).Draw(t, "score")
		}
		winner := Winner(g)
		found := false
		for _, p := range g.Players {
			if p.Address == winner {
				found = true
			}
		}
		assert.True(t, found, "winner %q not in roster", winner)
	})
}

func TestTotalPrize(t *testing.T) {
	tests := []struct {
		wager   string
		players int
		want    string
	}{
		{"10", 2, "20"},
		{"10", 5, "50"},
		{" 7 ", 3, "21"},
		{"1000000000000000000", 4, "4000000000000000000"},
		{"0", 3, "0"},
		{"", 3, "0"},
		{"-5", 3, "0"},
		{"1.5", 3, "0"},
		{"abc", 3, "0"},
		{"10", 0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPrize(tt.wager, tt.players).String(),
			"wager=%q players=%d", tt.wager, tt.players)
	}
}
