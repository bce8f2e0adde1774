package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type recordedMove struct {
	Number int
	UCI    string
	Color  string
}

type fakeRecorder struct {
	created   []NewGame
	moves     []recordedMove
	saves     int
	completed []string
}

func (f *fakeRecorder) CreateGame(_ context.Context, g NewGame, _ time.Time) error {
	f.created = append(f.created, g)
	return nil
}

func (f *fakeRecorder) SaveGameState(context.Context, uuid.UUID, GameStateUpdate) error {
	f.saves++
	return nil
}

func (f *fakeRecorder) RecordMove(_ context.Context, _ uuid.UUID, number int, uci, color string) error {
	f.moves = append(f.moves, recordedMove{number, uci, color})
	return nil
}

func (f *fakeRecorder) CompleteGame(_ context.Context, _ uuid.UUID, _, result string, _ time.Time) error {
	f.completed = append(f.completed, result)
	return nil
}

func TestArchiveRecordsOnlyNewMoves(t *testing.T) {
	rec := &fakeRecorder{}
	ctx := context.Background()
	a, err := OpenArchive(ctx, rec, NewGame{ID: uuid.New(), BackendModel: "random", PlayerColor: "w"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_ = a.Sync(ctx, Snapshot{Result: "*"})
	_ = a.Sync(ctx, Snapshot{Result: "*", Moves: []string{"e2e4", "e7e5"}})
	_ = a.Sync(ctx, Snapshot{Result: "*", Moves: []string{"e2e4", "e7e5", "g1f3"}})

	want := []recordedMove{{1, "e2e4", "w"}, {2, "e7e5", "b"}, {3, "g1f3", "w"}}
	if diff := cmp.Diff(want, rec.moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if rec.saves != 3 {
		t.Fatalf("expected a state save per sync, got %d", rec.saves)
	}
	if len(rec.completed) != 0 {
		t.Fatalf("game in progress must not complete")
	}
}

func TestArchiveCompletesOnce(t *testing.T) {
	rec := &fakeRecorder{}
	ctx := context.Background()
	a, _ := OpenArchive(ctx, rec, NewGame{ID: uuid.New()})
	mate := Snapshot{Status: "Game over, Black wins by Checkmate", Result: "0-1", Moves: []string{"f2f3", "e7e5", "g2g4", "d8h4"}}
	_ = a.Sync(ctx, mate)
	_ = a.Sync(ctx, mate)
	if diff := cmp.Diff([]string{"0-1"}, rec.completed); diff != "" {
		t.Fatalf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	id := uuid.New()
	if err := s.CreateGame(ctx, NewGame{ID: id}, time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.RecordMove(ctx, id, 1, "e2e4", "w"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := s.LoadGame(ctx, id); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	stats, err := s.FetchStats(ctx)
	if err != nil || stats != (Stats{}) {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	if NewStore(nil) != nil {
		t.Fatalf("NewStore(nil) should be nil")
	}
}
