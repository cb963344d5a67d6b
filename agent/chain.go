package agent

import (
	"context"
	"fmt"
	"time"

	"knucklebones/accel"
	"knucklebones/config"
	"knucklebones/experiments/metrics"
	"knucklebones/game"

	"github.com/rs/zerolog/log"
)

type ChainOption func(c *Chain)

// WithAccelerator asks engine first, with cfg and opp, whenever it reports
// Ready.
func WithAccelerator(engine accel.Engine, cfg config.DifficultyConfig, opp *config.DifficultyConfig) ChainOption {
	return func(c *Chain) {
		c.accel = engine
		c.cfg = cfg
		c.opp = opp
	}
}

func WithAccelTimeout(timeout time.Duration) ChainOption {
	return func(c *Chain) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Chain never fails on a position with a legal move. It tries the
// accelerator, then the primary agent, then the greedy move, then the first
// legal column, and only keeps an answer that is legal.
type Chain struct {
	primary Agent
	accel   accel.Engine
	cfg     config.DifficultyConfig
	opp     *config.DifficultyConfig
	timeout time.Duration
	source  string
}

func NewChain(primary Agent, options ...ChainOption) *Chain {
	c := &Chain{primary: primary, timeout: 2 * time.Second}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Chain) Name() string {
	return c.primary.Name()
}

// Source names the stage that produced the last move.
func (c *Chain) Source() string {
	return c.source
}

func (c *Chain) FindMove(state game.GameState) (int, error) {
	moves := state.LegalMoves()
	if len(moves) == 0 {
		return -1, ErrNoMove
	}

	if c.accel != nil && c.accel.Status() == accel.Ready {
		col, err := c.accelerated(state)
		if err == nil && state.IsLegal(col) {
			c.source = "accelerator"
			return col, nil
		}
		if err != nil {
			log.Debug().Err(err).Msg("accelerator failed, using local search")
		}
	}

	col, err := c.tryPrimary(state)
	if err == nil && state.IsLegal(col) {
		c.source = c.primary.Name()
		return col, nil
	}
	log.Warn().Err(err).Int("column", col).Str("agent", c.primary.Name()).Msg("agent gave no legal move, falling back")

	if col, _ := game.GreedyMove(state); col >= 0 {
		c.source = "greedy"
		return col, nil
	}
	c.source = "first legal"
	return moves[0], nil
}

func (c *Chain) accelerated(state game.GameState) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.accel.BestMove(ctx, accel.NewRequest(state, c.cfg, c.opp))
}

func (c *Chain) tryPrimary(state game.GameState) (col int, err error) {
	defer func() {
		if r := recover(); r != nil {
			col, err = -1, fmt.Errorf("agent %s panicked: %v", c.primary.Name(), r)
		}
	}()
	return c.primary.FindMove(state)
}

func (c *Chain) Observe(m game.Move) {
	if o, ok := c.primary.(Observer); ok {
		o.Observe(m)
	}
}

func (c *Chain) GameOver(final game.GameState) {
	if o, ok := c.primary.(Observer); ok {
		o.GameOver(final)
	}
}

func (c *Chain) ClearCache() {
	if cl, ok := c.primary.(Clearer); ok {
		cl.ClearCache()
	}
}

func (c *Chain) LastMetric() metrics.SearchMetric {
	var m metrics.SearchMetric
	if r, ok := c.primary.(Reporter); ok && c.source == c.primary.Name() {
		m = r.LastMetric()
	}
	m.Agent = c.Name()
	if m.Reason == "" {
		m.Reason = c.source
	}
	return m
}
