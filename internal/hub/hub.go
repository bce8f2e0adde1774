package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whales/internal/eventloop"
	"whales/internal/logging"
	"whales/internal/session"
)

// NewHub creates a hub and starts its idle-page sweeper.
func NewHub(cfg Config) *Hub {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 24 * time.Hour
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = 5 * time.Minute
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{cfg: cfg, pages: make(map[string]*Page), ctx: ctx, cancel: cancel}
	go func() {
		ticker := time.NewTicker(cfg.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.sweep(now)
			}
		}
	}()
	return h
}

// Get looks up a live page.
func (h *Hub) Get(id string) (*Page, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pages[id]
	return p, ok
}

// Len returns the number of live pages.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pages)
}

// Watchers returns the number of event streams open across all pages.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, p := range h.pages {
		n += p.Watchers()
	}
	return n
}

// Close stops every page and the sweeper.
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, p := range h.pages {
		p.cancel()
		delete(h.pages, id)
	}
}

// sweep drops pages nobody watches that were last seen more than IdleTTL before now.
func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, p := range h.pages {
		p.mu.Lock()
		idle := len(p.watchers) == 0 && now.Sub(p.lastSeen) > h.cfg.IdleTTL
		p.mu.Unlock()
		if idle {
			p.cancel()
			delete(h.pages, id)
			logging.Debugf("page %s swept", id)
		}
	}
}

// newPage registers a page and starts its loop.
func (h *Hub) newPage(kind Kind) *Page {
	ctx, cancel := context.WithCancel(h.ctx)
	p := &Page{
		ID:       uuid.NewString(),
		Kind:     kind,
		loop:     eventloop.New(ctx),
		cancel:   cancel,
		watchers: make(map[chan []byte]struct{}),
		view:     newViewState(),
		lastSeen: time.Now(),
	}
	go func() {
		if err := p.loop.Run(ctx); err != nil && ctx.Err() == nil {
			logging.L().Warn("page loop stopped", zap.String("page", p.ID), zap.Error(err))
		}
	}()

	h.mu.Lock()
	h.pages[p.ID] = p
	h.mu.Unlock()
	return p
}

func (h *Hub) drop(p *Page) {
	p.cancel()
	h.mu.Lock()
	delete(h.pages, p.ID)
	h.mu.Unlock()
}
