package agent

import (
	"context"
	"errors"
	"testing"

	"knucklebones/accel"
	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/montecarlo"
	"knucklebones/searcher"

	"github.com/stretchr/testify/require"
)

func placing(t *testing.T, g1, g2 game.Grid, player game.Player, die game.Die) game.GameState {
	t.Helper()
	s, err := game.FromGrids(g1, g2, player, die)
	require.NoError(t, err)
	return s
}

type stub struct {
	col   int
	err   error
	panic bool
	seen  []game.Move
	over  int
}

func (s *stub) Name() string { return "stub" }

func (s *stub) FindMove(game.GameState) (int, error) {
	if s.panic {
		panic("boom")
	}
	return s.col, s.err
}

func (s *stub) Observe(m game.Move)     { s.seen = append(s.seen, m) }
func (s *stub) GameOver(game.GameState) { s.over++ }

type fakeAccel struct {
	status accel.Capability
	col    int
	err    error
	calls  int
}

func (f *fakeAccel) Status() accel.Capability { return f.status }

func (f *fakeAccel) BestMove(context.Context, accel.Request) (int, error) {
	f.calls++
	return f.col, f.err
}

func TestBaselines(t *testing.T) {
	s := placing(t, game.Grid{}, game.Grid{{}, {}, {3, 0, 0}}, game.Player1, 3)

	t.Run("greedy attacks", func(t *testing.T) {
		col, err := NewGreedy().FindMove(s)
		require.NoError(t, err)
		require.Equal(t, 2, col, "Should remove the opponent's 3")
	})

	t.Run("random plays legal columns", func(t *testing.T) {
		a := NewRandom(game.NewSeededDice(1))
		for i := 0; i < 20; i++ {
			col, err := a.FindMove(s)
			require.NoError(t, err)
			require.True(t, s.IsLegal(col))
		}
	})

	t.Run("no move before the roll", func(t *testing.T) {
		_, err := NewGreedy().FindMove(game.New())
		require.ErrorIs(t, err, ErrNoMove)
		_, err = NewRandom(nil).FindMove(game.New())
		require.ErrorIs(t, err, ErrNoMove)
	})
}

func TestLevel(t *testing.T) {
	levels := config.Default()
	hard, ok := levels.Get("hard")
	require.True(t, ok)

	t.Run("forced column", func(t *testing.T) {
		s := placing(t, game.Grid{{1, 2, 3}, {}, {4, 5, 6}}, game.Grid{}, game.Player1, 4)
		for _, cfg := range levels.Levels {
			col, err := NewLevel(cfg, searcher.WithDice(game.NewSeededDice(1))).FindMove(s)
			require.NoError(t, err, cfg.Name)
			require.Equal(t, 1, col, "Should take the only open column at %s", cfg.Name)
		}
	})

	t.Run("reports the decision", func(t *testing.T) {
		l := NewLevel(hard, searcher.WithDice(game.NewSeededDice(2)))
		s, err := game.New().Roll(5)
		require.NoError(t, err)
		_, err = l.FindMove(s)
		require.NoError(t, err)
		require.Equal(t, "hard", l.LastMetric().Agent)
		require.NotEmpty(t, l.LastMetric().Reason)
	})

	t.Run("invalid configs are errors", func(t *testing.T) {
		s, err := game.New().Roll(5)
		require.NoError(t, err)
		_, err = NewLevel(config.DifficultyConfig{Depth: 99}).FindMove(s)
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestMaster(t *testing.T) {
	m := NewMaster(game.Player1, nil, searcher.WithDice(game.NewSeededDice(3)))

	m.Observe(game.Move{Player: game.Player1, Column: 0, Die: 6})
	m.Observe(game.Move{Player: game.Player2, Column: 2, Die: 6, Removal: game.Removal{Removed: 1, ScoreLost: 6}})
	snapshot := m.Profile().Snapshot()
	require.Equal(t, 1, snapshot.TotalMoves, "Should only record the opponent")
	require.Equal(t, 1, snapshot.AttackMoves)

	m.GameOver(game.New())
	require.Equal(t, 1, m.Profile().Snapshot().GamesCompleted)

	s := placing(t, game.Grid{}, game.Grid{{}, {}, {4, 0, 0}}, game.Player1, 4)
	col, err := m.FindMove(s)
	require.NoError(t, err)
	require.True(t, s.IsLegal(col))
	require.Equal(t, "master", m.LastMetric().Agent)

	NewChain(m).ClearCache()
	require.Zero(t, m.ctx.TTSize(), "Should drop the table")
	require.Equal(t, 1, m.Profile().Snapshot().GamesCompleted, "Should not count an unfinished game")
}

func TestMonteCarlo(t *testing.T) {
	a, err := NewMonteCarlo(montecarlo.Config{Simulations: 50, Policy: montecarlo.Heuristic, MaxMoves: 50, Workers: 2}, game.NewSeededDice(4))
	require.NoError(t, err)

	s := placing(t, game.Grid{{6, 6, 6}, {6, 6, 6}, {6, 6, 0}}, game.Grid{{1, 0, 0}}, game.Player1, 1)
	col, err := a.FindMove(s)
	require.NoError(t, err)
	require.Equal(t, 2, col)
	require.Equal(t, 1.0, a.LastMetric().Value, "Should report a certain win")

	_, err = NewMonteCarlo(montecarlo.Config{Policy: "none"}, nil)
	require.Error(t, err)
}

func TestMCTS(t *testing.T) {
	t.Run("plays the most visited column", func(t *testing.T) {
		require.Equal(t, 1, findMax(map[int]float64{0: 0.2, 1: 0.5, 2: 0.3}))
		require.Equal(t, 0, findMax(map[int]float64{0: 0.5, 2: 0.5}), "Should break ties towards the lowest column")
	})

	t.Run("temperature sharpens the policy", func(t *testing.T) {
		adjusted := adjustTemperature(map[int]float64{0: 0.25, 1: 0.75}, 0.5)
		require.InDelta(t, 0.1, adjusted[0], 1e-9)
		require.InDelta(t, 0.9, adjusted[1], 1e-9)
	})

	t.Run("sampling follows the policy", func(t *testing.T) {
		dice := game.NewSeededDice(5)
		for i := 0; i < 20; i++ {
			require.Equal(t, 2, sample(map[int]float64{1: 0, 2: 1}, dice))
		}
	})

	t.Run("finds legal moves", func(t *testing.T) {
		dice := game.NewSeededDice(6)
		m := searcher.NewMCTS(2, searcher.WithEpisodes(200), searcher.WithRand(dice), searcher.WithMetrics())
		a := NewMCTS("mcts", m, 1, dice)

		s, err := game.New().Roll(3)
		require.NoError(t, err)
		col, err := a.FindMove(s)
		require.NoError(t, err)
		require.True(t, s.IsLegal(col))
		require.Equal(t, 200, a.LastMetric().Episodes)

		_, err = a.FindMove(game.New())
		require.ErrorIs(t, err, ErrNoMove)
	})
}

func TestChain(t *testing.T) {
	s := placing(t, game.Grid{{1, 2, 3}}, game.Grid{{}, {2, 0, 0}}, game.Player1, 2)

	t.Run("keeps a legal answer", func(t *testing.T) {
		c := NewChain(&stub{col: 2})
		col, err := c.FindMove(s)
		require.NoError(t, err)
		require.Equal(t, 2, col)
		require.Equal(t, "stub", c.Source())
	})

	for name, primary := range map[string]*stub{
		"illegal answer": {col: 0},
		"error":          {col: 1, err: errors.New("nope")},
		"panic":          {panic: true},
	} {
		t.Run(name+" falls back to greedy", func(t *testing.T) {
			c := NewChain(primary)
			col, err := c.FindMove(s)
			require.NoError(t, err, "Should never fail with legal moves left")
			require.Equal(t, 1, col, "Should play the greedy attack")
			require.Equal(t, "greedy", c.Source())
		})
	}

	t.Run("no move is an error", func(t *testing.T) {
		_, err := NewChain(&stub{}).FindMove(game.New())
		require.ErrorIs(t, err, ErrNoMove)
	})

	t.Run("ready accelerators go first", func(t *testing.T) {
		fast := &fakeAccel{status: accel.Ready, col: 2}
		c := NewChain(&stub{col: 1}, WithAccelerator(fast, config.DifficultyConfig{}, nil))
		col, err := c.FindMove(s)
		require.NoError(t, err)
		require.Equal(t, 2, col)
		require.Equal(t, "accelerator", c.Source())
	})

	t.Run("deferring or failing accelerators are skipped", func(t *testing.T) {
		for _, fast := range []*fakeAccel{
			{status: accel.Ready, col: accel.NoMove},
			{status: accel.Ready, err: accel.ErrUnavailable},
		} {
			c := NewChain(&stub{col: 2}, WithAccelerator(fast, config.DifficultyConfig{}, nil))
			col, err := c.FindMove(s)
			require.NoError(t, err)
			require.Equal(t, 2, col, "Should use the primary agent")
			require.Equal(t, 1, fast.calls)
		}
	})

	t.Run("initializing accelerators are not asked", func(t *testing.T) {
		fast := &fakeAccel{status: accel.Initializing, col: 2}
		_, err := NewChain(&stub{col: 1}, WithAccelerator(fast, config.DifficultyConfig{}, nil)).FindMove(s)
		require.NoError(t, err)
		require.Zero(t, fast.calls)
	})

	t.Run("forwards observations", func(t *testing.T) {
		primary := &stub{}
		c := NewChain(primary)
		c.Observe(game.Move{Column: 1})
		c.GameOver(game.New())
		require.Len(t, primary.seen, 1)
		require.Equal(t, 1, primary.over)
	})
}

func TestFactory(t *testing.T) {
	f := NewFactory(config.Default())
	f.MCTSEpisodes = 50
	f.MonteCarlo.Simulations = 20

	for _, name := range f.Names() {
		a, err := f.New(name, game.Player1, game.NewSeededDice(7))
		require.NoError(t, err, name)
		require.Equal(t, name, a.Name())
	}
	require.True(t, f.Adaptive("master"))
	require.False(t, f.Adaptive("hard"))
	require.Greater(t, f.Cost("deep"), f.Cost("beginner"))

	_, err := f.New("wizard", game.Player1, nil)
	require.Error(t, err)
}
