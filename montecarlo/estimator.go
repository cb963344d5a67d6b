// Package montecarlo estimates how likely each move is to win by playing
// many quick games to the end. It answers "how good is this for me"
// rather than searching for the adversarially best move.
package montecarlo

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"knucklebones/game"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// checkInterval is how many playouts a worker runs between cancellation checks.
const checkInterval = 128

// SimulationResult tallies the playouts that followed one candidate move.
type SimulationResult struct {
	Wins               int     `json:"wins" yaml:"wins"`
	Losses             int     `json:"losses" yaml:"losses"`
	Draws              int     `json:"draws" yaml:"draws"`
	Truncated          int     `json:"truncated" yaml:"truncated"` // Playouts stopped by the move ceiling
	WinProbability     float64 `json:"winProbability" yaml:"winProbability"`
	ExpectedScoreDelta float64 `json:"expectedScoreDelta" yaml:"expectedScoreDelta"`
}

// Completed counts playouts that reached a finished game.
func (r SimulationResult) Completed() int {
	return r.Wins + r.Losses + r.Draws
}

// MoveAnalysis is the report for one legal column.
type MoveAnalysis struct {
	Column              int `json:"column" yaml:"column"`
	ImmediateScoreGain  int `json:"immediateScoreGain" yaml:"immediateScoreGain"`
	OpponentDiceRemoved int `json:"opponentDiceRemoved" yaml:"opponentDiceRemoved"`
	SimulationResult    `yaml:",inline"`
}

type Option func(e *Estimator)

// WithDice seeds the estimator; each worker forks its own source from it.
func WithDice(dice game.Dice) Option {
	return func(e *Estimator) {
		if dice != nil {
			e.dice = dice
		}
	}
}

func WithWorkers(workers int) Option {
	return func(e *Estimator) {
		if workers > 0 {
			e.cfg.Workers = workers
		}
	}
}

type Estimator struct {
	cfg  Config
	dice game.Dice
}

func NewEstimator(cfg Config, options ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{cfg: cfg}
	for _, option := range options {
		option(e)
	}
	if e.dice == nil {
		e.dice = game.NewDice()
	}
	if e.cfg.Workers == 0 {
		e.cfg.Workers = 1
	}
	return e, nil
}

// AnalyzeMoves runs a one-off analysis with a fresh estimator.
func AnalyzeMoves(ctx context.Context, state game.GameState, cfg Config, dice game.Dice) ([]MoveAnalysis, error) {
	e, err := NewEstimator(cfg, WithDice(dice))
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, state)
}

// Analyze simulates every legal column and ranks them by win probability,
// then expected score delta.
func (e *Estimator) Analyze(ctx context.Context, state game.GameState) ([]MoveAnalysis, error) {
	logger := zerolog.Ctx(ctx)
	moves := state.LegalMoves()
	analyses := make([]MoveAnalysis, 0, len(moves))
	for _, col := range moves {
		next, removal, err := state.Apply(col)
		if err != nil {
			return nil, err
		}
		result, err := e.Evaluate(ctx, state, col)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, MoveAnalysis{
			Column:              col,
			ImmediateScoreGain:  next.Score(state.Player()) - state.Score(state.Player()),
			OpponentDiceRemoved: removal.Removed,
			SimulationResult:    result,
		})
		logger.Debug().Int("column", col).Float64("winProbability", result.WinProbability).
			Int("completed", result.Completed()).Msg("analyzed move")
	}

	slices.SortStableFunc(analyses, func(a, b MoveAnalysis) int {
		if c := cmp.Compare(b.WinProbability, a.WinProbability); c != 0 {
			return c
		}
		return cmp.Compare(b.ExpectedScoreDelta, a.ExpectedScoreDelta)
	})
	return analyses, nil
}

// Recommend returns the top ranked column.
func (e *Estimator) Recommend(ctx context.Context, state game.GameState) (int, bool, error) {
	analyses, err := e.Analyze(ctx, state)
	if err != nil || len(analyses) == 0 {
		return 0, false, err
	}
	return analyses[0].Column, true, nil
}

// Evaluate plays the configured number of games after col and scores them
// from the point of view of the player making the move.
func (e *Estimator) Evaluate(ctx context.Context, state game.GameState, col int) (SimulationResult, error) {
	after, _, err := state.Apply(col)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("cannot simulate column %d: %w", col, err)
	}
	after = after.WithoutHistory()
	player := state.Player()

	workers := min(e.cfg.Workers, max(e.cfg.Simulations, 1))
	tallies := make([]tally, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		// Playouts are split statically so a seed gives the same totals
		share := e.cfg.Simulations / workers
		if w < e.cfg.Simulations%workers {
			share++
		}
		dice := game.Fork(e.dice)
		t := &tallies[w]
		g.Go(func() error {
			for i := 0; i < share; i++ {
				if i%checkInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				t.add(playout(after, player, e.cfg, dice))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SimulationResult{}, err
	}

	var total tally
	for _, t := range tallies {
		total.merge(t)
	}
	return total.result(), nil
}
