package engine

import (
	"context"
	"net/http/httptest"
	"testing"

	"knucklebones/agent"
	"knucklebones/config"
	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/searcher"
	"knucklebones/server"
	"knucklebones/worker"

	"github.com/stretchr/testify/require"
)

type illegal struct{}

func (illegal) Name() string                         { return "illegal" }
func (illegal) FindMove(game.GameState) (int, error) { return 7, nil }

type counter struct {
	moves []game.Move
	final []game.GameState
}

func (c *counter) Observe(m game.Move)           { c.moves = append(c.moves, m) }
func (c *counter) GameOver(final game.GameState) { c.final = append(c.final, final) }

// clearing plays greedily and counts cache clears.
type clearing struct {
	agent.Agent
	clears int
}

func (c *clearing) ClearCache() { c.clears++ }

func TestLocal(t *testing.T) {
	t.Run("plays a game to the end", func(t *testing.T) {
		dice := game.NewSeededDice(1)
		obs := &counter{}
		e := NewLocal(agent.NewGreedy(), agent.NewRandom(dice), WithDice(dice), WithObserver(obs))

		winner, gameMetric, moveMetrics := e.Run(context.Background())
		final := e.State()
		require.True(t, final.IsTerminal())
		require.Equal(t, final.Winner(), winner)
		require.NotEqual(t, game.NoWinner, winner)

		require.Len(t, moveMetrics, gameMetric.TotalMoves)
		require.Len(t, obs.moves, gameMetric.TotalMoves, "Should report every move")
		require.Len(t, obs.final, 1)
		require.Equal(t, final.Score(game.Player1), gameMetric.Score1)
		require.Equal(t, 1, gameMetric.StartingPlayer)
		require.False(t, gameMetric.Truncated)
		require.Equal(t, "greedy", moveMetrics[0].Agent)
		require.Equal(t, 1, moveMetrics[0].Player)
		require.Equal(t, 2, moveMetrics[1].Player)
	})

	t.Run("illegal answers are replaced", func(t *testing.T) {
		dice := game.NewSeededDice(2)
		_, _, moveMetrics := NewLocal(illegal{}, agent.NewGreedy(), WithDice(dice)).Run(context.Background())
		require.True(t, moveMetrics[0].Fallback)
		require.Zero(t, moveMetrics[0].Column, "Should force the first legal column")
		require.False(t, moveMetrics[1].Fallback)
	})

	t.Run("stops at the turn ceiling", func(t *testing.T) {
		dice := game.NewSeededDice(3)
		obs := &counter{}
		winner, gameMetric, _ := NewLocal(agent.NewGreedy(), agent.NewGreedy(), WithDice(dice), WithMaxTurns(4), WithObserver(obs)).
			Run(context.Background())
		require.Equal(t, game.NoWinner, winner)
		require.True(t, gameMetric.Truncated)
		require.Equal(t, 4, gameMetric.TotalMoves)
		require.Empty(t, obs.final, "Should not end an unfinished game")
	})

	t.Run("cut short games clear the agents' caches", func(t *testing.T) {
		a1, a2 := &clearing{Agent: agent.NewGreedy()}, &clearing{Agent: agent.NewGreedy()}
		_, gameMetric, _ := NewLocal(a1, a2, WithDice(game.NewSeededDice(3)), WithMaxTurns(4)).Run(context.Background())
		require.True(t, gameMetric.Truncated)
		require.Equal(t, 1, a1.clears)
		require.Equal(t, 1, a2.clears)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b := &clearing{Agent: agent.NewGreedy()}
		NewLocal(b, agent.NewGreedy(), WithDice(game.NewSeededDice(3))).Run(ctx)
		require.Equal(t, 1, b.clears, "Should clear after a cancelled game")
	})

	t.Run("finished games leave clearing to GameOver", func(t *testing.T) {
		a := &clearing{Agent: agent.NewGreedy()}
		_, gameMetric, _ := NewLocal(a, agent.NewGreedy(), WithDice(game.NewSeededDice(3))).Run(context.Background())
		require.False(t, gameMetric.Truncated)
		require.Zero(t, a.clears)
	})

	t.Run("a truncated game leaves a level with an empty table", func(t *testing.T) {
		cfg := config.DifficultyConfig{Name: "deep", Depth: 2, OffenseWeight: 0.5, DefenseWeight: 0.5, Adversarial: true}
		level := agent.NewLevel(cfg, searcher.WithDice(game.NewSeededDice(7)))
		chain := agent.NewChain(level)
		_, gameMetric, moves := NewLocal(chain, agent.NewGreedy(), WithDice(game.NewSeededDice(7)), WithMaxTurns(3)).
			Run(context.Background())
		require.True(t, gameMetric.Truncated)
		require.Positive(t, moves[0].Nodes, "Should have searched")
		require.Zero(t, level.TTSize(), "Should not carry the table into the next game")
	})

	t.Run("same seed replays the same game", func(t *testing.T) {
		play := func() []metrics.MoveMetric {
			dice := game.NewSeededDice(4)
			_, _, moves := NewLocal(agent.NewRandom(dice), agent.NewGreedy(), WithDice(dice), WithCollector(metrics.NewCollector())).
				Run(context.Background())
			return moves
		}
		a, b := play(), play()
		require.Equal(t, len(a), len(b))
		for i := range a {
			require.Equal(t, a[i].Column, b[i].Column)
			require.Equal(t, a[i].Die, b[i].Die)
		}
	})

	t.Run("master learns from the opponent", func(t *testing.T) {
		dice := game.NewSeededDice(5)
		master := agent.NewMaster(game.Player2, nil, searcher.WithDice(dice), searcher.WithMaxNodes(20000))
		NewLocal(agent.NewGreedy(), master, WithDice(dice)).Run(context.Background())

		snapshot := master.Profile().Snapshot()
		require.Equal(t, 1, snapshot.GamesCompleted)
		require.Positive(t, snapshot.TotalMoves)
	})
}

func TestRemote(t *testing.T) {
	dice := game.NewSeededDice(6)
	s := server.New(worker.NewDispatcher(worker.WithDice(dice), worker.WithLevels(config.Default())))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	remote := NewRemote(ts.URL, "medium", false, game.Player1, "remote-test")
	winner, gameMetric, _ := NewLocal(remote, agent.NewGreedy(), WithDice(dice)).Run(context.Background())
	require.NotEqual(t, game.NoWinner, winner)
	require.Positive(t, gameMetric.TotalMoves)

	_, err := NewRemote(ts.URL, "legendary", false, game.Player1, "").FindMove(mustRoll(t))
	require.Error(t, err, "Should surface worker errors")
}

func mustRoll(t *testing.T) game.GameState {
	t.Helper()
	s, err := game.New().Roll(3)
	require.NoError(t, err)
	return s
}
