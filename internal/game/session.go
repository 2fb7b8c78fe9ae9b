package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal"
)

// ErrRoomFull rejects a join that would exceed MaxPlayersPerRoom.
var ErrRoomFull = errors.New("room is full")

// WordSource provides the word drawn each round.
type WordSource interface {
	RandomWord() string
}

// Session is the authoritative state machine for one room. All operations
// serialize on an internal mutex, so events for a room are applied
// one-at-a-time in arrival order; different rooms never share state.
// Outbound events are collected under the lock and flushed to the sink
// after it is released, so a slow listener can never stall the room.
type Session struct {
	roomCode string

	words   WordSource
	sched   Scheduler
	sink    internal.EventSink
	onEnded func(internal.FinishedGame)
	logger  *zap.Logger

	mu      sync.Mutex
	players []*internal.Player
	state   internal.SessionState

	currentDrawer string
	currentWord   string
	scores        map[string]int
	timeLeft      int

	playersWhoHaveDrawn map[string]struct{}
	correctGuessers     map[string]struct{}
	chatLog             []internal.ChatEntry
	wagerAmount         string
	strokes             []internal.Stroke

	roundCancel CancelFunc
	graceCancel CancelFunc
}

// SessionDeps carries everything a session needs injected. OnEnded fires
// once, off the lock, when the session reaches Ended.
type SessionDeps struct {
	Words   WordSource
	Sched   Scheduler
	Sink    internal.EventSink
	OnEnded func(internal.FinishedGame)
	Logger  *zap.Logger
}

// NewSession creates a Lobby-state session with no players.
func NewSession(roomCode string, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		roomCode:            roomCode,
		words:               deps.Words,
		sched:               deps.Sched,
		sink:                deps.Sink,
		onEnded:             deps.OnEnded,
		logger:              logger.With(zap.String("room", roomCode)),
		state:               internal.StateLobby,
		scores:              make(map[string]int),
		playersWhoHaveDrawn: make(map[string]struct{}),
		correctGuessers:     make(map[string]struct{}),
	}
}

// Join adds a player if not already present. The first player seeds the
// drawer placeholder. Duplicate joins are idempotent and just replay the
// state snapshot.
func (s *Session) Join(address, name string) error {
	s.mu.Lock()
	if s.state == internal.StateEnded {
		s.mu.Unlock()
		return nil
	}
	var evs []internal.Event
	if s.indexOf(address) < 0 {
		if len(s.players) >= internal.MaxPlayersPerRoom {
			s.mu.Unlock()
			return ErrRoomFull
		}
		if name == "" {
			name = defaultName(address)
		}
		s.players = append(s.players, &internal.Player{
			Address:  address,
			Name:     name,
			JoinedAt: time.Now(),
		})
		if _, ok := s.scores[address]; !ok {
			s.scores[address] = 0
		}
		if len(s.players) == 1 {
			s.currentDrawer = address
		}
		s.appendChatLocked(&evs, address, "joined the room", internal.ChatKindSystem)
		s.logger.Info("player joined",
			zap.String("address", address),
			zap.Int("players", len(s.players)))
	}
	evs = append(evs, internal.BroadcastEvent(internal.EventGameState, s.snapshotLocked()))
	s.mu.Unlock()
	s.flush(evs)
	return nil
}

// SetWager stores the room's wager. Only the first non-zero value is
// accepted; the amount is opaque here and interpreted by settlement.
func (s *Session) SetWager(amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount == "" || amount == "0" {
		return
	}
	if s.wagerAmount != "" && s.wagerAmount != "0" {
		return
	}
	s.wagerAmount = amount
	s.logger.Info("wager set", zap.String("amount", amount))
}

// Start begins the first round. Requires the lobby state and at least two
// players; otherwise the caller gets a targeted error event and nothing
// changes.
func (s *Session) Start(address string) {
	s.mu.Lock()
	if s.state != internal.StateLobby {
		s.mu.Unlock()
		return
	}
	if len(s.players) < internal.MinPlayersToStart {
		s.mu.Unlock()
		s.flush([]internal.Event{internal.TargetEvent(address, internal.EventError,
			internal.ErrorData{Message: "Not enough players"})})
		return
	}
	evs := []internal.Event{internal.BroadcastEvent(internal.EventGameState, s.snapshotLocked())}
	s.beginRoundLocked(&evs)
	s.logger.Info("game started", zap.Int("players", len(s.players)))
	s.mu.Unlock()
	s.flush(evs)
}

// Guess evaluates one guess. Ignored outside an active round, from the
// drawer, or from a player who already guessed correctly this round, so a
// player can score at most once per round.
func (s *Session) Guess(address, text string) {
	s.mu.Lock()
	if s.state != internal.StateRoundActive ||
		address == s.currentDrawer ||
		s.indexOf(address) < 0 {
		s.mu.Unlock()
		return
	}
	if _, already := s.correctGuessers[address]; already {
		s.mu.Unlock()
		return
	}

	var evs []internal.Event
	s.appendChatLocked(&evs, address, text, internal.ChatKindGuess)

	var ended *internal.FinishedGame
	if GuessMatches(text, s.currentWord) {
		points := Points(s.timeLeft, internal.RoundDuration)
		s.scores[address] += points
		s.correctGuessers[address] = struct{}{}
		s.appendChatLocked(&evs, address, "guessed the word!", internal.ChatKindCorrect)
		evs = append(evs, internal.BroadcastEvent(internal.EventCorrectGuess, internal.CorrectGuessData{
			Player: address,
			Points: s.scores[address],
		}))
		s.logger.Info("correct guess",
			zap.String("address", address),
			zap.Int("points", points),
			zap.Int("time_left", s.timeLeft))
		if len(s.correctGuessers) >= len(s.players)-1 {
			// Every non-drawer has it; same as a timeout.
			ended = s.endRoundLocked(&evs, "")
		}
	} else {
		evs = append(evs, internal.TargetEvent(address, internal.EventWrongGuess,
			internal.WrongGuessData{Guess: text}))
	}
	s.mu.Unlock()
	s.flush(evs)
	s.reportEnded(ended)
}

// Draw appends strokes from the current drawer and relays them to everyone
// else. Anyone else drawing, or drawing outside a round, is ignored.
func (s *Session) Draw(address string, strokes []internal.Stroke) {
	s.mu.Lock()
	if s.state != internal.StateRoundActive || address != s.currentDrawer || len(strokes) == 0 {
		s.mu.Unlock()
		return
	}
	s.strokes = append(s.strokes, strokes...)
	s.mu.Unlock()
	s.flush([]internal.Event{internal.ExceptEvent(address, internal.EventDrawUpdate,
		internal.DrawUpdateData{Strokes: strokes})})
}

// Chat appends a plain chat entry and broadcasts it.
func (s *Session) Chat(address, text string) {
	s.mu.Lock()
	if s.indexOf(address) < 0 || s.state == internal.StateEnded {
		s.mu.Unlock()
		return
	}
	var evs []internal.Event
	s.appendChatLocked(&evs, address, text, internal.ChatKindChat)
	s.mu.Unlock()
	s.flush(evs)
}

// Leave removes a player and reports whether the session is now empty (the
// caller destroys it). A departing drawer mid-round ends the round early,
// with the new first player taking over as drawer. A departing guesser is
// pruned from the correct-guesser set so the all-correct check always runs
// against the remaining roster.
func (s *Session) Leave(address string) (empty bool) {
	s.mu.Lock()
	idx := s.indexOf(address)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	wasDrawer := address == s.currentDrawer
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	delete(s.correctGuessers, address)
	s.logger.Info("player left",
		zap.String("address", address),
		zap.Int("players", len(s.players)))

	if len(s.players) == 0 {
		s.stopTimersLocked()
		s.state = internal.StateEnded
		s.mu.Unlock()
		return true
	}

	var evs []internal.Event
	var ended *internal.FinishedGame
	s.appendChatLocked(&evs, address, "left the room", internal.ChatKindSystem)
	if wasDrawer {
		switch s.state {
		case internal.StateRoundActive:
			ended = s.endRoundLocked(&evs, s.players[0].Address)
		case internal.StateRoundEnding:
			// The chosen next drawer left during the grace delay.
			s.currentDrawer = s.players[0].Address
		case internal.StateLobby:
			s.currentDrawer = s.players[0].Address
		}
	} else if s.state == internal.StateRoundActive &&
		len(s.correctGuessers) > 0 &&
		len(s.correctGuessers) >= len(s.players)-1 {
		// The departure left every remaining non-drawer correct; same as
		// the last guesser getting the word. A round with no correct
		// guesses runs to the timeout instead.
		ended = s.endRoundLocked(&evs, "")
	}
	evs = append(evs, internal.BroadcastEvent(internal.EventGameState, s.snapshotLocked()))
	s.mu.Unlock()
	s.flush(evs)
	s.reportEnded(ended)
	return false
}

// Destroy cancels any outstanding timers and terminates the session. Called
// by the registry on removal; idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimersLocked()
	s.state = internal.StateEnded
}

// Snapshot returns the public state, for diagnostics and tests.
func (s *Session) Snapshot() internal.GameStateData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// tick is the once-per-second scheduler callback while a round is active.
// A ghost tick arriving after the round ended is a benign race and no-ops.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != internal.StateRoundActive {
		s.mu.Unlock()
		return
	}
	s.timeLeft--
	evs := []internal.Event{internal.BroadcastEvent(internal.EventTimeUpdate, s.timeLeft)}
	var ended *internal.FinishedGame
	if s.timeLeft <= 0 {
		ended = s.endRoundLocked(&evs, "")
	}
	s.mu.Unlock()
	s.flush(evs)
	s.reportEnded(ended)
}

// beginNextRound fires after the grace delay between rounds.
func (s *Session) beginNextRound() {
	s.mu.Lock()
	if s.state != internal.StateRoundEnding {
		s.mu.Unlock()
		return
	}
	var evs []internal.Event
	s.beginRoundLocked(&evs)
	s.mu.Unlock()
	s.flush(evs)
}

// beginRoundLocked starts a round: fresh word, full clock, cleared guessers
// and canvas, countdown running. The word travels only in the drawer's copy
// of roundStart.
func (s *Session) beginRoundLocked(evs *[]internal.Event) {
	s.state = internal.StateRoundActive
	s.currentWord = s.words.RandomWord()
	s.timeLeft = internal.RoundDuration
	s.correctGuessers = make(map[string]struct{})
	s.strokes = nil
	s.graceCancel = nil
	s.roundCancel = s.sched.Every(time.Second, s.tick)

	*evs = append(*evs,
		internal.ExceptEvent(s.currentDrawer, internal.EventRoundStart, internal.RoundStartData{
			Drawer:   s.currentDrawer,
			TimeLeft: s.timeLeft,
		}),
		internal.TargetEvent(s.currentDrawer, internal.EventRoundStart, internal.RoundStartData{
			Drawer:   s.currentDrawer,
			Word:     s.currentWord,
			TimeLeft: s.timeLeft,
		}),
	)
	s.logger.Info("round started", zap.String("drawer", s.currentDrawer))
}

// endRoundLocked finishes the active round: stops the countdown, records the
// drawer, rotates, and either schedules the next round or ends the game.
// Calling it when no round is active is a no-op, which makes the
// timeout/all-correct/disconnect races idempotent. nextOverride, when set,
// replaces rotation (drawer disconnect picks the new first player).
// Returns the finished-game snapshot when the game-end bound is reached.
func (s *Session) endRoundLocked(evs *[]internal.Event, nextOverride string) *internal.FinishedGame {
	if s.state != internal.StateRoundActive {
		return nil
	}
	if s.roundCancel != nil {
		s.roundCancel()
		s.roundCancel = nil
	}
	s.state = internal.StateRoundEnding
	s.playersWhoHaveDrawn[s.currentDrawer] = struct{}{}

	next := nextOverride
	if next == "" {
		next = NextDrawer(s.players, s.currentDrawer, s.playersWhoHaveDrawn)
	}
	*evs = append(*evs, internal.BroadcastEvent(internal.EventRoundEnd, internal.RoundEndData{
		Scores:     s.copyScoresLocked(),
		NextDrawer: next,
		Word:       s.currentWord,
	}))
	s.logger.Info("round ended",
		zap.String("word", s.currentWord),
		zap.String("next_drawer", next))
	s.currentDrawer = next
	s.currentWord = ""

	bound := min(len(s.players), internal.TotalRounds)
	if len(s.playersWhoHaveDrawn) >= bound {
		s.state = internal.StateEnded
		s.logger.Info("game ended", zap.Int("rounds", len(s.playersWhoHaveDrawn)))
		return s.finishedLocked()
	}
	s.graceCancel = s.sched.Once(internal.GraceDelay, s.beginNextRound)
	return nil
}

func (s *Session) finishedLocked() *internal.FinishedGame {
	players := make([]internal.Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}
	return &internal.FinishedGame{
		RoomCode:    s.roomCode,
		Players:     players,
		Scores:      s.copyScoresLocked(),
		WagerAmount: s.wagerAmount,
	}
}

func (s *Session) appendChatLocked(evs *[]internal.Event, author, text string, kind internal.ChatKind) {
	entry := internal.ChatEntry{
		Author:    author,
		Text:      text,
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
	}
	s.chatLog = append(s.chatLog, entry)
	*evs = append(*evs, internal.BroadcastEvent(internal.EventChatMessage, entry))
}

func (s *Session) stopTimersLocked() {
	if s.roundCancel != nil {
		s.roundCancel()
		s.roundCancel = nil
	}
	if s.graceCancel != nil {
		s.graceCancel()
		s.graceCancel = nil
	}
}

func (s *Session) snapshotLocked() internal.GameStateData {
	players := make([]internal.Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}
	drawn := make([]string, 0, len(s.playersWhoHaveDrawn))
	for addr := range s.playersWhoHaveDrawn {
		drawn = append(drawn, addr)
	}
	chat := make([]internal.ChatEntry, len(s.chatLog))
	copy(chat, s.chatLog)
	strokes := make([]internal.Stroke, len(s.strokes))
	copy(strokes, s.strokes)
	return internal.GameStateData{
		RoomCode:      s.roomCode,
		State:         s.state,
		Players:       players,
		Scores:        s.copyScoresLocked(),
		CurrentDrawer: s.currentDrawer,
		TimeLeft:      s.timeLeft,
		WagerAmount:   s.wagerAmount,
		PlayersDrawn:  drawn,
		Chat:          chat,
		Strokes:       strokes,
	}
}

func (s *Session) copyScoresLocked() map[string]int {
	out := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

func (s *Session) indexOf(address string) int {
	for i, p := range s.players {
		if p.Address == address {
			return i
		}
	}
	return -1
}

func (s *Session) flush(evs []internal.Event) {
	for _, ev := range evs {
		s.sink.Send(s.roomCode, ev)
	}
}

func (s *Session) reportEnded(g *internal.FinishedGame) {
	if g != nil && s.onEnded != nil {
		s.onEnded(*g)
	}
}

func defaultName(address string) string {
	short := address
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("Player %s", short)
}
