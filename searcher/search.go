package searcher

import (
	"fmt"
	"time"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/meta"

	"github.com/rs/zerolog/log"
)

type Reason string

const (
	ReasonNone    Reason = "none"    // No legal move
	ReasonForced  Reason = "forced"  // Single legal move
	ReasonRandom  Reason = "random"  // Randomized difficulty
	ReasonGreedy  Reason = "greedy"  // One-ply heuristic
	ReasonSearch  Reason = "search"  // Completed tree search
	ReasonPartial Reason = "partial" // Budget ran out before the search completed
)

// Decision is the outcome of a move search.
type Decision struct {
	Column int         `json:"column" yaml:"column"`
	OK     bool        `json:"ok" yaml:"ok"`
	Value  float64     `json:"value" yaml:"value"`
	Reason Reason      `json:"reason" yaml:"reason"`
	Values []MoveValue `json:"values,omitempty" yaml:"values,omitempty"` // Root values of the deepest completed pass
	Stats  Stats       `json:"stats" yaml:"stats"`
}

// ChooseMove picks a column for the player to move, reporting false only
// when there is no legal move. Invalid configurations are logged and
// treated as having no move.
func ChooseMove(ctx *Context, state game.GameState, cfg config.DifficultyConfig, opp *config.DifficultyConfig) (int, bool) {
	d, err := Search(ctx, state, cfg, opp)
	if err != nil {
		log.Warn().Err(err).Str("level", cfg.Name).Msg("rejected move request")
		return 0, false
	}
	return d.Column, d.OK
}

// Search decides a move for the player to move under cfg. opp describes
// the opponent for the modeled MIN policy; nil models the opponent as a
// mirror of cfg.
func Search(ctx *Context, state game.GameState, cfg config.DifficultyConfig, opp *config.DifficultyConfig) (Decision, error) {
	if err := cfg.Validate(); err != nil {
		return Decision{}, err
	}
	opponent := cfg
	if opp != nil {
		if err := opp.Validate(); err != nil {
			return Decision{}, fmt.Errorf("opponent: %w", err)
		}
		opponent = *opp
	}

	if d, done := shortcut(ctx, state, cfg.Randomness); done {
		return d, nil
	}
	if cfg.Depth == 0 {
		col, value := game.GreedyMove(state)
		return Decision{Column: col, OK: true, Value: float64(value), Reason: ReasonGreedy}, nil
	}

	ctx.bind(cfg, opponent)
	e := newExpectimax(ctx, state.Player(), cfg, opponent)
	return e.run(state.WithoutHistory(), orderMoves(state), nil), nil
}

// shortcut settles the cases that need no tree: no move, a single move or
// a randomized pick.
func shortcut(ctx *Context, state game.GameState, randomness float64) (Decision, bool) {
	moves := state.LegalMoves()
	switch {
	case len(moves) == 0:
		return Decision{Reason: ReasonNone}, true
	case len(moves) == 1:
		return Decision{Column: moves[0], OK: true, Reason: ReasonForced}, true
	case randomness > 0 && ctx.dice.Float64() < randomness:
		return Decision{Column: moves[ctx.dice.Intn(len(moves))], OK: true, Reason: ReasonRandom}, true
	}
	return Decision{}, false
}

// run searches to the configured depth, iteratively deepening when the
// configuration has a time budget.
func (e *expectimax) run(state game.GameState, order []int, bias func(col int) float64) Decision {
	started := time.Now()
	if e.cfg.TimeBudgetMs > 0 {
		return e.deepen(state, order, bias, started)
	}

	e.ctx.begin(time.Time{})
	best, values, complete := e.root(state, e.cfg.Depth, order, bias)
	d := Decision{Column: best.Column, OK: true, Value: best.Value, Reason: ReasonSearch, Values: values}
	depth := e.cfg.Depth
	if !complete {
		d.Reason = ReasonPartial
		depth = 0
		log.Debug().Msgf("search aborted after %d nodes, keeping best move so far", e.ctx.nodes)
	}
	d.Stats = e.ctx.finish(started, depth)
	return d
}

// deepen runs passes of depth 1, 2, ... up to the configured depth and keeps
// the result of the deepest pass that completed. No new pass starts once
// meta.DEEPENING_CUTOFF of the budget has elapsed.
func (e *expectimax) deepen(state game.GameState, order []int, bias func(col int) float64, started time.Time) Decision {
	budget := e.cfg.TimeBudget()
	cutoff := time.Duration(float64(budget) * meta.DEEPENING_CUTOFF)
	e.ctx.begin(started.Add(budget))

	var d Decision
	completed := 0
	for depth := 1; depth <= e.cfg.Depth; depth++ {
		if time.Since(started) >= cutoff {
			break
		}
		best, values, complete := e.root(state, depth, order, bias)
		if !complete {
			break
		}
		d = Decision{Column: best.Column, OK: true, Value: best.Value, Reason: ReasonSearch, Values: values}
		completed = depth
		order = principalFirst(order, best.Column)
	}

	if completed == 0 {
		col, value := game.GreedyMove(state)
		d = Decision{Column: col, OK: true, Value: float64(value), Reason: ReasonGreedy}
		log.Debug().Msg("no deepening pass completed, falling back to greedy move")
	}
	d.Stats = e.ctx.finish(started, completed)
	return d
}

// principalFirst moves the best move of the last pass to the front.
func principalFirst(order []int, best int) []int {
	next := make([]int, 0, len(order))
	next = append(next, best)
	for _, col := range order {
		if col != best {
			next = append(next, col)
		}
	}
	return next
}
