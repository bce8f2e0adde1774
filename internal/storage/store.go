package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and provides helper methods for archiving games.
// A nil *Store is valid and turns every call into a no-op.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// NewGame describes a game at the moment its page opens.
type NewGame struct {
	ID           uuid.UUID
	SessionID    string
	BackendModel string
	PlayerColor  string
}

// GameStateUpdate represents a partial update to a game row.
type GameStateUpdate struct {
	FEN         *string
	PGN         *string
	Status      *string
	Result      *string
	Active      *bool
	LastSeen    *time.Time
	CompletedAt *time.Time
}

// CreateGame inserts a game row. Creating an existing id is a no-op.
func (s *Store) CreateGame(ctx context.Context, g NewGame, lastSeen time.Time) error {
	if s == nil {
		return nil
	}
	row := Game{
		ID:           g.ID,
		SessionID:    g.SessionID,
		BackendModel: g.BackendModel,
		PlayerColor:  g.PlayerColor,
		Active:       true,
		LastSeen:     lastSeen,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// SaveGameState applies partial updates to the game row.
func (s *Store) SaveGameState(ctx context.Context, id uuid.UUID, upd GameStateUpdate) error {
	if s == nil {
		return nil
	}
	updates := make(map[string]any)
	if upd.FEN != nil {
		updates["fen"] = *upd.FEN
	}
	if upd.PGN != nil {
		updates["pgn"] = *upd.PGN
	}
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}
	if upd.Result != nil {
		updates["result"] = *upd.Result
	}
	if upd.Active != nil {
		updates["active"] = *upd.Active
	}
	if upd.LastSeen != nil {
		updates["last_seen"] = *upd.LastSeen
	}
	if upd.CompletedAt != nil {
		updates["completed_at"] = *upd.CompletedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Updates(updates).Error
}

// RecordMove inserts a move row for the given game.
func (s *Store) RecordMove(ctx context.Context, gameID uuid.UUID, number int, uci, color string) error {
	if s == nil {
		return nil
	}
	move := Move{
		GameID: gameID,
		Number: number,
		UCI:    uci,
		Color:  color,
	}
	return s.db.WithContext(ctx).Create(&move).Error
}

// CompleteGame marks a game as finished with the provided status and result.
func (s *Store) CompleteGame(ctx context.Context, id uuid.UUID, status, result string, completedAt time.Time) error {
	if s == nil {
		return nil
	}
	active := false
	return s.SaveGameState(ctx, id, GameStateUpdate{
		Status:      &status,
		Result:      &result,
		Active:      &active,
		CompletedAt: &completedAt,
	})
}

// LoadGame fetches an archived game with its moves in order.
func (s *Store) LoadGame(ctx context.Context, id uuid.UUID) (*Game, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var game Game
	err := s.db.WithContext(ctx).
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		First(&game, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Stats represents aggregate counts for games.
type Stats struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
}

// FetchStats aggregates counts for the stats endpoint.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Count(&stats.Started).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("completed_at IS NOT NULL").Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
