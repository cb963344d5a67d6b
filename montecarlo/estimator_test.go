package montecarlo

import (
	"context"
	"testing"

	"knucklebones/game"

	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, cfg Config, seed uint64) *Estimator {
	t.Helper()
	e, err := NewEstimator(cfg, WithDice(game.NewSeededDice(seed)))
	require.NoError(t, err)
	return e
}

func opening(t *testing.T, die game.Die) game.GameState {
	t.Helper()
	s, err := game.New().Roll(die)
	require.NoError(t, err)
	return s
}

func TestConfig(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for name, cfg := range map[string]Config{
		"negative simulations": {Simulations: -1, Policy: Random, MaxMoves: 50},
		"unknown policy":       {Simulations: 10, Policy: "smart", MaxMoves: 50},
		"ratio above one":      {Simulations: 10, Policy: Mixed, HeuristicRatio: 1.5, MaxMoves: 50},
		"no move ceiling":      {Simulations: 10, Policy: Random},
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			_, err := NewEstimator(cfg)
			require.Error(t, err, "Should refuse to build an estimator")
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("a game winning move always wins", func(t *testing.T) {
		s, err := game.FromGrids(
			game.Grid{{6, 6, 6}, {6, 6, 6}, {6, 6, 0}},
			game.Grid{{1, 0, 0}},
			game.Player1, 6,
		)
		require.NoError(t, err)
		e := seeded(t, Config{Simulations: 40, Policy: Random, MaxMoves: 50, Workers: 4}, 1)

		result, err := e.Evaluate(context.Background(), s, 2)
		require.NoError(t, err)
		require.Equal(t, 40, result.Wins)
		require.Equal(t, 1.0, result.WinProbability)
		require.Positive(t, result.ExpectedScoreDelta)
	})

	t.Run("no completed playouts reports zero", func(t *testing.T) {
		e := seeded(t, Config{Simulations: 0, Policy: Random, MaxMoves: 50, Workers: 2}, 1)
		result, err := e.Evaluate(context.Background(), opening(t, 3), 0)
		require.NoError(t, err)
		require.Zero(t, result.WinProbability, "Should not divide by zero")
		require.Zero(t, result.ExpectedScoreDelta)
	})

	t.Run("truncated playouts are excluded", func(t *testing.T) {
		e := seeded(t, Config{Simulations: 30, Policy: Heuristic, MaxMoves: 1, Workers: 3}, 1)
		result, err := e.Evaluate(context.Background(), opening(t, 3), 0)
		require.NoError(t, err)
		require.Equal(t, 30, result.Truncated, "Should stop every playout at the ceiling")
		require.Zero(t, result.Completed())
		require.Zero(t, result.WinProbability)
	})

	t.Run("same seed and workers give the same totals", func(t *testing.T) {
		cfg := Config{Simulations: 200, Policy: Mixed, HeuristicRatio: 0.5, MaxMoves: 50, Workers: 4}
		a, err := seeded(t, cfg, 7).Evaluate(context.Background(), opening(t, 5), 1)
		require.NoError(t, err)
		b, err := seeded(t, cfg, 7).Evaluate(context.Background(), opening(t, 5), 1)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Equal(t, 200, a.Completed()+a.Truncated, "Should run every playout")
	})

	t.Run("illegal columns are rejected", func(t *testing.T) {
		e := seeded(t, Config{Simulations: 10, Policy: Random, MaxMoves: 50}, 1)
		_, err := e.Evaluate(context.Background(), game.New(), 0)
		require.ErrorIs(t, err, game.ErrWrongPhase)
	})

	t.Run("cancellation stops the workers", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := seeded(t, Config{Simulations: 1000, Policy: Random, MaxMoves: 50, Workers: 2}, 1)
		_, err := e.Evaluate(ctx, opening(t, 2), 0)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("ranks every legal move", func(t *testing.T) {
		e := seeded(t, Config{Simulations: 300, Policy: Heuristic, MaxMoves: 50, Workers: 4}, 11)
		analyses, err := e.Analyze(context.Background(), opening(t, 4))
		require.NoError(t, err)
		require.Len(t, analyses, 3)

		for i, a := range analyses {
			require.GreaterOrEqual(t, a.WinProbability, 0.0)
			require.LessOrEqual(t, a.WinProbability, 1.0)
			require.Equal(t, 4, a.ImmediateScoreGain, "Should score the placed die on an empty board")
			if i > 0 {
				require.LessOrEqual(t, a.WinProbability, analyses[i-1].WinProbability, "Should sort by win probability")
			}
		}
	})

	t.Run("reports removed dice", func(t *testing.T) {
		s, err := game.FromGrids(game.Grid{}, game.Grid{{}, {5, 5, 0}}, game.Player1, 5)
		require.NoError(t, err)
		analyses, err := AnalyzeMoves(context.Background(), s,
			Config{Simulations: 20, Policy: Random, MaxMoves: 50, Workers: 1}, game.NewSeededDice(3))
		require.NoError(t, err)

		for _, a := range analyses {
			if a.Column == 1 {
				require.Equal(t, 2, a.OpponentDiceRemoved)
			} else {
				require.Zero(t, a.OpponentDiceRemoved)
			}
		}
	})

	t.Run("recommends the only move", func(t *testing.T) {
		s, err := game.FromGrids(game.Grid{{1, 2, 3}, {1, 2, 3}, {}}, game.Grid{}, game.Player2, 6)
		require.NoError(t, err)
		col, ok, err := seeded(t, Config{Simulations: 10, Policy: Random, MaxMoves: 50}, 1).
			Recommend(context.Background(), s)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 2, col)
	})

	t.Run("nothing to analyze before the roll", func(t *testing.T) {
		_, ok, err := seeded(t, DefaultConfig(), 1).Recommend(context.Background(), game.New())
		require.NoError(t, err)
		require.False(t, ok)
	})
}
