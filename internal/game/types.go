package game

import (
	"errors"

	"github.com/corentings/chess/v2"
)

// TurnState says who may act next.
type TurnState int

const (
	HumanTurn TurnState = iota
	ComputerTurn
	GameOver
)

func (s TurnState) String() string {
	switch s {
	case HumanTurn:
		return "human"
	case ComputerTurn:
		return "computer"
	case GameOver:
		return "over"
	default:
		return "unknown"
	}
}

// Move is a from/to pair of algebraic squares.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Options configures a new Game.
type Options struct {
	BackendModel string
	PlayerColor  string // "w" or "b"
	PGN          string // empty for a fresh game
}

// Game holds one human-versus-computer game. It is not safe for concurrent use; the
// page that owns it confines it to its event loop.
type Game struct {
	g            *chess.Game
	backendModel string
	playerColor  chess.Color
}

// ErrInvalidPGN is returned when a game record cannot be parsed.
var ErrInvalidPGN = errors.New("invalid PGN")
