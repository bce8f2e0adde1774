package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whales/internal/logging"
	"whales/internal/newgame"
	"whales/internal/play"
	"whales/internal/session"
	"whales/internal/storage"
)

// NewGamePage opens a new-game page whose previous selection is fragment.
func (h *Hub) NewGamePage(ctx context.Context, fragment string) (*Page, error) {
	p := h.newPage(KindNewGame)
	_, err := do(ctx, p, func() (struct{}, error) {
		form := newFormView(p)
		ctl := newgame.Start(p.loop, form, h.cfg.Catalog, fragment)
		p.handle = func(ev Event) (Result, error) {
			switch ev.Kind {
			case EvClick:
				return Result{OK: ctl.Click(ev.Button)}, nil
			case EvChange:
				return Result{OK: form.change(ev.Control, ev.Value)}, nil
			}
			return Result{}, ErrUnknownEvent
		}
		return struct{}{}, nil
	})
	if err != nil {
		h.drop(p)
		return nil, err
	}
	return p, nil
}

// PlayPage opens a play page for the browser session sid.
func (h *Hub) PlayPage(ctx context.Context, sid string) (*Page, error) {
	p := h.newPage(KindPlay)
	_, err := do(ctx, p, func() (struct{}, error) {
		var board *boardView
		deps := play.Deps{
			Loop:    p.loop,
			Storage: session.Bind(h.cfg.Sessions, sid),
			Moves:   h.cfg.Moves,
			NewView: func(cfg play.ViewConfig) play.View {
				board = newBoardView(p, cfg)
				return board
			},
		}
		if h.cfg.Archive != nil {
			deps.OnSync = h.archiver(p, sid)
		}
		if _, err := play.New(ctx, deps); err != nil {
			return struct{}{}, err
		}
		p.handle = board.dispatch
		return struct{}{}, nil
	})
	if err != nil {
		h.drop(p)
		return nil, fmt.Errorf("open play page: %w", err)
	}
	return p, nil
}

// archived is what a play model exposes beyond play.Model for archiving.
type archived interface {
	MovesUCI() []string
	Outcome() string
	PlayerColor() string
}

// snapshotSlot holds the newest unwritten snapshot. A put replaces whatever the
// writer has not picked up yet, so the page loop never waits on the archive.
type snapshotSlot struct {
	mu    sync.Mutex
	snap  *storage.Snapshot
	ready chan struct{}
}

func newSnapshotSlot() *snapshotSlot {
	return &snapshotSlot{ready: make(chan struct{}, 1)}
}

func (s *snapshotSlot) put(snap storage.Snapshot) {
	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *snapshotSlot) take() (storage.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return storage.Snapshot{}, false
	}
	snap := *s.snap
	s.snap = nil
	return snap, true
}

// archiver returns an OnSync hook that mirrors the page's game into the archive.
// Writes happen on a goroutine of their own; a slow archive skips intermediate
// snapshots, and the next write still records every move.
func (h *Hub) archiver(p *Page, sid string) func(play.Model) {
	ctx := p.loop.Context()
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil
	}
	slot := newSnapshotSlot()
	meta := make(chan storage.NewGame, 1)

	go func() {
		var ng storage.NewGame
		select {
		case <-ctx.Done():
			return
		case ng = <-meta:
		}
		var archive *storage.Archive
		for {
			select {
			case <-ctx.Done():
				return
			case <-slot.ready:
			}
			snap, ok := slot.take()
			if !ok {
				continue
			}
			if archive == nil {
				a, err := storage.OpenArchive(ctx, h.cfg.Archive, ng)
				if err != nil {
					logging.L().Warn("archive open failed", zap.String("page", p.ID), zap.Error(err))
					continue
				}
				archive = a
			}
			if err := archive.Sync(ctx, snap); err != nil {
				logging.L().Warn("archive sync failed", zap.String("page", p.ID), zap.Error(err))
			}
		}
	}()

	opened := false
	return func(m play.Model) {
		extra, ok := m.(archived)
		if !ok {
			return
		}
		if !opened {
			opened = true
			meta <- storage.NewGame{
				ID:           id,
				SessionID:    sid,
				BackendModel: m.BackendModel(),
				PlayerColor:  extra.PlayerColor(),
			}
		}
		slot.put(storage.Snapshot{
			FEN:    m.FEN(),
			PGN:    m.PGN(),
			Status: m.Status(),
			Result: extra.Outcome(),
			Moves:  extra.MovesUCI(),
		})
	}
}
