package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder is the subset of *Store an Archive writes through.
type Recorder interface {
	CreateGame(ctx context.Context, g NewGame, lastSeen time.Time) error
	SaveGameState(ctx context.Context, id uuid.UUID, upd GameStateUpdate) error
	RecordMove(ctx context.Context, gameID uuid.UUID, number int, uci, color string) error
	CompleteGame(ctx context.Context, id uuid.UUID, status, result string, completedAt time.Time) error
}

// Snapshot is the state of a game after a view sync.
type Snapshot struct {
	FEN    string
	PGN    string
	Status string
	Result string // "*" while the game is in progress
	Moves  []string
}

// Archive mirrors one live game into a Recorder, writing only what changed.
type Archive struct {
	rec       Recorder
	id        uuid.UUID
	recorded  int
	completed bool
	now       func() time.Time
}

// OpenArchive creates the game row and returns its Archive.
func OpenArchive(ctx context.Context, rec Recorder, g NewGame) (*Archive, error) {
	a := &Archive{rec: rec, id: g.ID, now: time.Now}
	if err := rec.CreateGame(ctx, g, a.now()); err != nil {
		return nil, err
	}
	return a, nil
}

// Sync records moves not yet archived and the current position. A finished game is
// completed once.
func (a *Archive) Sync(ctx context.Context, snap Snapshot) error {
	if len(snap.Moves) < a.recorded {
		a.recorded = 0
	}
	for i := a.recorded; i < len(snap.Moves); i++ {
		color := "w"
		if i%2 == 1 {
			color = "b"
		}
		if err := a.rec.RecordMove(ctx, a.id, i+1, snap.Moves[i], color); err != nil {
			return err
		}
		a.recorded = i + 1
	}

	now := a.now()
	if err := a.rec.SaveGameState(ctx, a.id, GameStateUpdate{
		FEN:      &snap.FEN,
		PGN:      &snap.PGN,
		Status:   &snap.Status,
		LastSeen: &now,
	}); err != nil {
		return err
	}

	if snap.Result != "" && snap.Result != "*" && !a.completed {
		if err := a.rec.CompleteGame(ctx, a.id, snap.Status, snap.Result, now); err != nil {
			return err
		}
		a.completed = true
	}
	return nil
}
