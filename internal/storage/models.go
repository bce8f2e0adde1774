package storage

import (
	"time"

	"github.com/google/uuid"
)

// Game is one archived human-versus-computer game. Its ID is the play page id.
type Game struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID    string    `gorm:"index"`
	BackendModel string    `gorm:"index"`
	PlayerColor  string
	FEN          string
	PGN          string
	Status       string
	Result       string
	Active       bool `gorm:"index"`
	CompletedAt  *time.Time
	LastSeen     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Moves        []Move
}

// Move stores a single half-move in a game.
type Move struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;index"`
	Number    int
	UCI       string
	Color     string
	CreatedAt time.Time
}
