package internal

// Message is the wire envelope for both directions of the websocket protocol.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Outbound event types.
const (
	EventGameState    = "gameState"
	EventRoundStart   = "roundStart"
	EventTimeUpdate   = "timeUpdate"
	EventRoundEnd     = "roundEnd"
	EventCorrectGuess = "correctGuess"
	EventWrongGuess   = "wrongGuess"
	EventDrawUpdate   = "drawUpdate"
	EventChatMessage  = "chatMessage"
	EventGameEnd      = "gameEnd"
	EventTxSubmitted  = "transactionSubmitted"
	EventTxConfirmed  = "transactionConfirmed"
	EventTxSkipped    = "transactionSkipped"
	EventTxFailed     = "transactionFailed"
	EventError        = "error"
)

// Event is one outbound message plus its routing within a room.
// Target delivers to a single address; Exclude broadcasts to everyone else;
// with neither set the event goes to the whole room.
type Event struct {
	Type    string
	Target  string
	Exclude string
	Data    any
}

func BroadcastEvent(typ string, data any) Event {
	return Event{Type: typ, Data: data}
}

func TargetEvent(address, typ string, data any) Event {
	return Event{Type: typ, Target: address, Data: data}
}

func ExceptEvent(address, typ string, data any) Event {
	return Event{Type: typ, Exclude: address, Data: data}
}

// EventSink delivers outbound events for a room to whoever is listening.
// Implementations must tolerate rooms that no longer have any listeners;
// settlement outcomes can arrive after a room has been torn down.
type EventSink interface {
	Send(roomCode string, ev Event)
}

// GameStateData is the full public snapshot broadcast on join and roster
// changes. The current word is never included; the drawer learns it from a
// targeted roundStart.
type GameStateData struct {
	RoomCode      string         `json:"room_code"`
	State         SessionState   `json:"state"`
	Players       []Player       `json:"players"`
	Scores        map[string]int `json:"scores"`
	CurrentDrawer string         `json:"current_drawer"`
	TimeLeft      int            `json:"time_left"`
	WagerAmount   string         `json:"wager_amount"`
	PlayersDrawn  []string       `json:"players_drawn"`
	Chat          []ChatEntry    `json:"chat"`
	Strokes       []Stroke       `json:"strokes"`
}

type RoundStartData struct {
	Drawer   string `json:"drawer"`
	Word     string `json:"word,omitempty"` // present only in the drawer's copy
	TimeLeft int    `json:"time_left"`
}

type RoundEndData struct {
	Scores     map[string]int `json:"scores"`
	NextDrawer string         `json:"next_drawer"`
	Word       string         `json:"word"`
}

type CorrectGuessData struct {
	Player string `json:"player"`
	Points int    `json:"points"` // cumulative score after the award
}

type WrongGuessData struct {
	Guess string `json:"guess"`
}

type DrawUpdateData struct {
	Strokes []Stroke `json:"lines"`
}

type GameEndData struct {
	Winner     string         `json:"winner"`
	Scores     map[string]int `json:"scores"`
	TotalPrize string         `json:"total_prize"`
}

type TxSubmittedData struct {
	Winner          string `json:"winner"`
	TransactionHash string `json:"transaction_hash"`
	GameCode        string `json:"game_code"`
}

type TxConfirmedData struct {
	Winner          string `json:"winner"`
	TransactionHash string `json:"transaction_hash"`
	GameCode        string `json:"game_code"`
}

type TxSkippedData struct {
	Reason   string `json:"reason"`
	GameCode string `json:"game_code"`
}

type TxFailedData struct {
	Error    string `json:"error"`
	GameCode string `json:"game_code"`
}

type ErrorData struct {
	Message string `json:"message"`
}
