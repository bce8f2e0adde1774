package eventloop

import (
	"context"
	"sync/atomic"
)

// Loop runs posted callbacks one at a time, in order. State touched only from
// callbacks needs no locking.
type Loop struct {
	ctx     context.Context
	queue   chan func()
	pending atomic.Int64
}

// New creates a loop whose spawned work is bound to ctx.
func New(ctx context.Context) *Loop {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Loop{ctx: ctx, queue: make(chan func(), 256)}
}

// Context returns the context spawned work runs under.
func (l *Loop) Context() context.Context { return l.ctx }

// Post enqueues fn to run on a later turn of the loop.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.ctx.Done():
	}
}

// Run executes callbacks until ctx or the loop's own context is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ctx.Done():
			return l.ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Settle runs queued callbacks on the calling goroutine until the queue is empty and
// no spawned task is outstanding. It must not be used together with Run.
func (l *Loop) Settle() {
	for {
		select {
		case fn := <-l.queue:
			fn()
			continue
		default:
		}
		if l.pending.Load() == 0 {
			return
		}
		select {
		case fn := <-l.queue:
			fn()
		case <-l.ctx.Done():
			return
		}
	}
}

// Spawn runs work off the loop and posts done with its result. done never runs
// during the call that spawned it.
func Spawn[T any](l *Loop, work func(context.Context) (T, error), done func(T, error)) {
	l.pending.Add(1)
	go func() {
		res, err := work(l.ctx)
		l.Post(func() {
			defer l.pending.Add(-1)
			if done != nil {
				done(res, err)
			}
		})
	}()
}
