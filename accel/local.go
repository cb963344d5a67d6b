package accel

import (
	"context"
	"sync"

	"knucklebones/searcher"
)

// Local serves accelerator requests with the in-process search. It keeps one
// search context, so requests are handled one at a time.
type Local struct {
	mu  sync.Mutex
	ctx *searcher.Context
}

func NewLocal(options ...searcher.ContextOption) *Local {
	return &Local{ctx: searcher.NewContext(options...)}
}

func (l *Local) Status() Capability {
	return Ready
}

func (l *Local) BestMove(ctx context.Context, req Request) (int, error) {
	if err := ctx.Err(); err != nil {
		return NoMove, err
	}
	state, err := req.Decode()
	if err != nil {
		return NoMove, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	d, err := searcher.Search(l.ctx, state, req.Config, req.Opponent)
	if err != nil {
		return NoMove, err
	}
	if !d.OK {
		return NoMove, nil
	}
	return d.Column, nil
}

// Clear drops the cached search values, typically between games.
func (l *Local) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx.Clear()
}
