package hub

import (
	"context"
	"encoding/json"
	"time"
)

type viewState struct {
	singles    map[string]Command
	options    []Command
	highlights []Command
}

func newViewState() viewState {
	return viewState{singles: make(map[string]Command)}
}

func (v *viewState) remember(cmd Command) {
	switch cmd.Kind {
	case CmdHighlight:
		v.highlights = append(v.highlights, cmd)
	case CmdUnhighlight:
		v.highlights = nil
	case CmdOption:
		v.options = append(v.options, cmd)
	case CmdNavigate:
	default:
		v.singles[cmd.Kind] = cmd
	}
}

// replay rebuilds the view for a watcher that connects late.
func (v *viewState) replay() []Command {
	var out []Command
	for _, kind := range []string{CmdOrientation, CmdColor} {
		if c, ok := v.singles[kind]; ok {
			out = append(out, c)
		}
	}
	out = append(out, v.options...)
	for _, kind := range []string{CmdSelect, CmdFEN, CmdStatus} {
		if c, ok := v.singles[kind]; ok {
			out = append(out, c)
		}
	}
	return append(out, v.highlights...)
}

// Touch marks the page as seen now.
func (p *Page) Touch() {
	p.mu.Lock()
	p.lastSeen = time.Now()
	p.mu.Unlock()
}

// Watch registers a watcher. It returns the channel further commands arrive on, the
// commands that rebuild the current view, and a func that unregisters the watcher.
func (p *Page) Watch() (<-chan []byte, [][]byte, func()) {
	ch := make(chan []byte, 32)
	p.mu.Lock()
	p.watchers[ch] = struct{}{}
	p.lastSeen = time.Now()
	var initial [][]byte
	for _, cmd := range p.view.replay() {
		data, _ := json.Marshal(cmd)
		initial = append(initial, data)
	}
	p.mu.Unlock()

	stop := func() {
		p.mu.Lock()
		delete(p.watchers, ch)
		p.lastSeen = time.Now()
		p.mu.Unlock()
	}
	return ch, initial, stop
}

// Watchers returns the number of connected watchers.
func (p *Page) Watchers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.watchers)
}

// broadcast records cmd and sends it to every watcher. Slow watchers miss it.
func (p *Page) broadcast(cmd Command) {
	data, _ := json.Marshal(cmd)
	p.mu.Lock()
	p.view.remember(cmd)
	for ch := range p.watchers {
		select {
		case ch <- data:
		default:
		}
	}
	p.mu.Unlock()
}

// Dispatch runs ev on the page's loop and waits for its result.
func (p *Page) Dispatch(ctx context.Context, ev Event) (Result, error) {
	p.Touch()
	return do(ctx, p, func() (Result, error) { return p.handle(ev) })
}

// do runs fn on p's loop and waits for it.
func do[T any](ctx context.Context, p *Page, fn func() (T, error)) (T, error) {
	type reply struct {
		v   T
		err error
	}
	ch := make(chan reply, 1)
	p.loop.Post(func() {
		v, err := fn()
		ch <- reply{v, err}
	})
	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.loop.Context().Done():
		return zero, ErrClosed
	}
}
