package hub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"whales/internal/api"
	"whales/internal/selection"
	"whales/internal/session"
	"whales/internal/storage"
)

type catalogFunc func(ctx context.Context) ([]api.ModelInfo, error)

func (f catalogFunc) ListModels(ctx context.Context) ([]api.ModelInfo, error) { return f(ctx) }

type movesFunc func(ctx context.Context, model, pgn string) (string, error)

func (f movesFunc) GetMove(ctx context.Context, model, pgn string) (string, error) {
	return f(ctx, model, pgn)
}

func newTestHub(t *testing.T, sessions session.Store, moves movesFunc) *Hub {
	t.Helper()
	h := NewHub(Config{
		Catalog: catalogFunc(func(context.Context) ([]api.ModelInfo, error) {
			return []api.ModelInfo{
				{InternalName: "bar", DisplayName: "Bar"},
				{InternalName: "foo", DisplayName: "Foo"},
			}, nil
		}),
		Moves:    moves,
		Sessions: sessions,
	})
	t.Cleanup(h.Close)
	return h
}

func decode(t *testing.T, data []byte) Command {
	t.Helper()
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("bad command %s: %v", data, err)
	}
	return c
}

// waitFor reads commands until match accepts one.
func waitFor(t *testing.T, initial [][]byte, ch <-chan []byte, match func(Command) bool) Command {
	t.Helper()
	for _, data := range initial {
		if c := decode(t, data); match(c) {
			return c
		}
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data := <-ch:
			if c := decode(t, data); match(c) {
				return c
			}
		case <-timeout:
			t.Fatalf("timed out waiting for command")
		}
	}
}

func TestPagePersistenceBeforeCleanup(t *testing.T) {
	h := newTestHub(t, session.NewMemoryStore(), nil)
	p := h.newPage(KindNewGame)
	now := time.Now()

	p.mu.Lock()
	p.lastSeen = now.Add(-23 * time.Hour)
	p.mu.Unlock()
	h.sweep(now)
	if _, ok := h.Get(p.ID); !ok {
		t.Fatalf("page removed before 24 hours of inactivity")
	}

	p.mu.Lock()
	p.lastSeen = now.Add(-25 * time.Hour)
	p.mu.Unlock()
	h.sweep(now)
	if _, ok := h.Get(p.ID); ok {
		t.Fatalf("page not removed after 24 hours of inactivity")
	}
	if p.loop.Context().Err() == nil {
		t.Fatalf("swept page loop still running")
	}
}

func TestWatchedPageSurvivesCleanup(t *testing.T) {
	h := newTestHub(t, session.NewMemoryStore(), nil)
	p := h.newPage(KindNewGame)
	_, _, stop := p.Watch()
	defer stop()

	p.mu.Lock()
	p.lastSeen = time.Now().Add(-48 * time.Hour)
	p.mu.Unlock()
	h.sweep(time.Now())
	if _, ok := h.Get(p.ID); !ok {
		t.Fatalf("page with a watcher was swept")
	}
}

func TestNewGamePageFlow(t *testing.T) {
	h := newTestHub(t, session.NewMemoryStore(), nil)
	ctx := context.Background()
	frag := selection.EncodeFragment(selection.Selection{PlayerColor: "b", BackendModel: "foo"})

	p, err := h.NewGamePage(ctx, frag)
	if err != nil {
		t.Fatalf("NewGamePage: %v", err)
	}
	ch, initial, stop := p.Watch()
	defer stop()

	waitFor(t, initial, ch, func(c Command) bool { return c.Kind == CmdSelect && c.Value == "foo" })

	// A late watcher gets the whole form back.
	_, replay, stopLate := p.Watch()
	stopLate()
	var kinds []string
	for _, data := range replay {
		kinds = append(kinds, decode(t, data).Kind)
	}
	if got := strings.Join(kinds, ","); got != "color,option,option,select" {
		t.Fatalf("replay = %s", got)
	}

	if res, err := p.Dispatch(ctx, Event{Kind: EvChange, Control: "color", Value: "w"}); err != nil || !res.OK {
		t.Fatalf("change: %+v %v", res, err)
	}
	if res, err := p.Dispatch(ctx, Event{Kind: EvClick, Button: "playBtn"}); err != nil || !res.OK {
		t.Fatalf("click: %+v %v", res, err)
	}
	nav := waitFor(t, nil, ch, func(c Command) bool { return c.Kind == CmdNavigate })
	if !strings.HasPrefix(nav.Value, "/play#") {
		t.Fatalf("navigate to %q", nav.Value)
	}
	got := selection.DecodeFragment(nav.Value[strings.Index(nav.Value, "#"):])
	if got != (selection.Selection{PlayerColor: "w", BackendModel: "foo"}) {
		t.Fatalf("selection = %+v", got)
	}

	if _, err := p.Dispatch(ctx, Event{Kind: EvDragStart}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected unknown event, got %v", err)
	}
}

func TestPlayPageFlow(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "sid", session.KeyUserColor, "w")
	_ = store.Set(ctx, "sid", session.KeyModelName, "random")

	var asked []string
	h := newTestHub(t, store, func(_ context.Context, model, pgn string) (string, error) {
		asked = append(asked, model)
		return "1. e4 e5 *", nil
	})

	p, err := h.PlayPage(ctx, "sid")
	if err != nil {
		t.Fatalf("PlayPage: %v", err)
	}

	if res, _ := p.Dispatch(ctx, Event{Kind: EvDragStart, Piece: "bP"}); res.OK {
		t.Fatalf("black piece must not be draggable")
	}
	if res, _ := p.Dispatch(ctx, Event{Kind: EvDragStart, Piece: "wP"}); !res.OK {
		t.Fatalf("white pawn should be draggable")
	}
	if res, _ := p.Dispatch(ctx, Event{Kind: EvDragFinish, From: "e2", To: "e5"}); res.OK {
		t.Fatalf("illegal drop accepted")
	}
	if res, _ := p.Dispatch(ctx, Event{Kind: EvDragFinish, From: "e2", To: "e4"}); !res.OK {
		t.Fatalf("legal drop rejected")
	}
	if _, err := p.Dispatch(ctx, Event{Kind: EvMoveFinish}); err != nil {
		t.Fatalf("moveFinish: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, err := p.Dispatch(ctx, Event{Kind: EvDragStart, Piece: "wN"})
		if err != nil {
			t.Fatalf("dragStart: %v", err)
		}
		if res.OK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("computer reply never applied")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, replay, stop := p.Watch()
	stop()
	var orientation, fen string
	for _, data := range replay {
		switch c := decode(t, data); c.Kind {
		case CmdOrientation:
			orientation = c.Value
		case CmdFEN:
			fen = c.Value
		}
	}
	if orientation != "w" {
		t.Fatalf("orientation = %q", orientation)
	}
	if !strings.Contains(fen, "4p3/4P3") {
		t.Fatalf("board not synced to the reply: %q", fen)
	}
	if len(asked) != 1 || asked[0] != "random" {
		t.Fatalf("move service calls = %v", asked)
	}
}

// stalledRecorder blocks every write until release is closed.
type stalledRecorder struct {
	release chan struct{}
	mu      sync.Mutex
	created int
	saves   int
}

func (r *stalledRecorder) wait(ctx context.Context) error {
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *stalledRecorder) CreateGame(ctx context.Context, _ storage.NewGame, _ time.Time) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
	return nil
}

func (r *stalledRecorder) SaveGameState(ctx context.Context, _ uuid.UUID, _ storage.GameStateUpdate) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	return nil
}

func (r *stalledRecorder) RecordMove(ctx context.Context, _ uuid.UUID, _ int, _, _ string) error {
	return r.wait(ctx)
}

func (r *stalledRecorder) CompleteGame(ctx context.Context, _ uuid.UUID, _, _ string, _ time.Time) error {
	return r.wait(ctx)
}

func (r *stalledRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, r.saves
}

func TestSnapshotSlotKeepsLatest(t *testing.T) {
	slot := newSnapshotSlot()
	slot.put(storage.Snapshot{FEN: "first"})
	slot.put(storage.Snapshot{FEN: "second"})

	select {
	case <-slot.ready:
	default:
		t.Fatalf("slot not signalled")
	}
	snap, ok := slot.take()
	if !ok || snap.FEN != "second" {
		t.Fatalf("take = %+v, %v", snap, ok)
	}
	if _, ok := slot.take(); ok {
		t.Fatalf("slot should be empty after take")
	}
}

func TestStalledArchiveDoesNotBlockPage(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "sid", session.KeyUserColor, "w")

	rec := &stalledRecorder{release: make(chan struct{})}
	h := NewHub(Config{Sessions: store, Archive: rec})
	t.Cleanup(h.Close)

	p, err := h.PlayPage(ctx, "sid")
	if err != nil {
		t.Fatalf("PlayPage: %v", err)
	}

	// Every moveFinish syncs the view and hands the archive a snapshot.
	for i := 0; i < 40; i++ {
		dctx, cancel := context.WithTimeout(ctx, time.Second)
		_, err := p.Dispatch(dctx, Event{Kind: EvMoveFinish})
		cancel()
		if err != nil {
			t.Fatalf("dispatch %d blocked behind the archive: %v", i, err)
		}
	}

	close(rec.release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		created, saves := rec.counts()
		if created == 1 && saves > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("archive never caught up: created=%d saves=%d", created, saves)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
