// Package experiments pits agents against each other in batches and
// tournaments and records the results.
package experiments

import (
	"context"
	"fmt"

	"knucklebones/agent"
	"knucklebones/engine"
	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Matchup struct {
	Agent1 string `yaml:"agent1"` // Seated as Player1 unless colors alternate
	Agent2 string `yaml:"agent2"`
}

// BatchResult is seen from Agent1 of the matchup.
type BatchResult struct {
	Matchup   `yaml:",inline"`
	Games     int     `yaml:"games"`
	Wins1     int     `yaml:"wins1"`
	Wins2     int     `yaml:"wins2"`
	Draws     int     `yaml:"draws"`
	Truncated int     `yaml:"truncated"`
	AvgScore1 float64 `yaml:"avgScore1"`
	AvgScore2 float64 `yaml:"avgScore2"`

	Records []metrics.GameRecord `yaml:"-"`
	Moves   []metrics.MoveRecord `yaml:"-"`
}

// WinRate counts draws as half a win for Agent1.
func (r BatchResult) WinRate() float64 {
	decided := r.Wins1 + r.Wins2 + r.Draws
	if decided == 0 {
		return 0
	}
	return (float64(r.Wins1) + float64(r.Draws)/2) / float64(decided)
}

// Runner plays games between agents built by its factory.
type Runner struct {
	Factory agent.Factory
	// IDs maps agent names to the ids written to the records
	IDs map[string]int
	// Alternate swaps colors every other game
	Alternate bool
	MaxTurns  int
}

func NewRunner(factory agent.Factory) *Runner {
	ids := make(map[string]int)
	for i, name := range factory.Names() {
		ids[name] = i + 1
	}
	return &Runner{Factory: factory, IDs: ids, MaxTurns: meta.MAX_TURNS}
}

// RunBatch plays games independent games of a matchup. Each game gets its
// own agents and dice derived from seed, so games run in parallel with a
// limit scaled down by the cost of the agents. Adaptive agents learn across
// games, so a matchup with one runs sequentially with persistent agents.
func (r *Runner) RunBatch(ctx context.Context, m Matchup, games int, seed uint64) (BatchResult, error) {
	log.Info().Msgf("starting %d games between %s and %s...", games, m.Agent1, m.Agent2)

	outcomes := make([]outcome, games)
	var err error
	if r.Factory.Adaptive(m.Agent1) || r.Factory.Adaptive(m.Agent2) {
		err = r.sequential(ctx, m, outcomes, seed)
	} else {
		err = r.parallel(ctx, m, outcomes, seed)
	}
	if err != nil {
		return BatchResult{}, err
	}

	result := r.tally(m, outcomes)
	log.Info().Msgf("completed %s vs %s: %d-%d-%d (win rate %.2f)", m.Agent1, m.Agent2,
		result.Wins1, result.Draws, result.Wins2, result.WinRate())
	return result, nil
}

type outcome struct {
	swapped bool // Agent1 played as Player2
	game    metrics.GameMetric
	moves   []metrics.MoveMetric
	winner  game.Winner
}

func (r *Runner) swapped(i int) bool {
	return r.Alternate && i%2 == 1
}

func (r *Runner) parallel(ctx context.Context, m Matchup, outcomes []outcome, seed uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, meta.GO_ROUTINES/max(r.Factory.Cost(m.Agent1), r.Factory.Cost(m.Agent2))))

	for i := range outcomes {
		g.Go(func() error {
			dice := game.NewSeededDice(seed + uint64(i))
			first, second, swapped := m.Agent1, m.Agent2, r.swapped(i)
			if swapped {
				first, second = second, first
			}
			a1, err := r.Factory.New(first, game.Player1, game.Fork(dice))
			if err != nil {
				return err
			}
			a2, err := r.Factory.New(second, game.Player2, game.Fork(dice))
			if err != nil {
				return err
			}
			outcomes[i] = r.play(ctx, a1, a2, dice, swapped)
			return ctx.Err()
		})
	}
	return g.Wait()
}

func (r *Runner) sequential(ctx context.Context, m Matchup, outcomes []outcome, seed uint64) error {
	dice := game.NewSeededDice(seed)
	// Persistent agents per name and seat; an adaptive agent keeps its
	// profile as long as it keeps its seat.
	seats := map[[2]string]*agent.Chain{}
	seat := func(name string, player game.Player) (*agent.Chain, error) {
		key := [2]string{name, player.String()}
		if a, ok := seats[key]; ok {
			return a, nil
		}
		a, err := r.Factory.New(name, player, game.Fork(dice))
		if err != nil {
			return nil, err
		}
		seats[key] = a
		return a, nil
	}

	for i := range outcomes {
		if err := ctx.Err(); err != nil {
			return err
		}
		first, second, swapped := m.Agent1, m.Agent2, r.swapped(i)
		if swapped {
			first, second = second, first
		}
		a1, err := seat(first, game.Player1)
		if err != nil {
			return err
		}
		a2, err := seat(second, game.Player2)
		if err != nil {
			return err
		}
		outcomes[i] = r.play(ctx, a1, a2, game.Fork(dice), swapped)
	}
	return nil
}

func (r *Runner) play(ctx context.Context, a1, a2 agent.Agent, dice game.Dice, swapped bool) outcome {
	e := engine.NewLocal(a1, a2, engine.WithDice(dice), engine.WithMaxTurns(r.MaxTurns))
	winner, gameMetric, moveMetrics := e.Run(ctx)
	return outcome{swapped: swapped, game: gameMetric, moves: moveMetrics, winner: winner}
}

func (r *Runner) tally(m Matchup, outcomes []outcome) BatchResult {
	result := BatchResult{Matchup: m, Games: len(outcomes)}
	var score1, score2 int
	for i, o := range outcomes {
		id1, id2 := r.IDs[m.Agent1], r.IDs[m.Agent2]
		s1, s2 := o.game.Score1, o.game.Score2
		first := game.Player1
		if o.swapped {
			id1, id2 = id2, id1
			s1, s2 = s2, s1
			first = game.Player2
		}
		score1 += s1
		score2 += s2

		switch {
		case o.game.Truncated:
			result.Truncated++
		case o.winner == game.Draw:
			result.Draws++
		case o.winner.Is(first):
			result.Wins1++
		default:
			result.Wins2++
		}

		result.Records = append(result.Records, metrics.GameRecord{ID: i + 1, Agent1: id1, Agent2: id2, GameMetric: o.game})
		for _, mm := range o.moves {
			result.Moves = append(result.Moves, metrics.MoveRecord{Game: i + 1, MoveMetric: mm})
		}
	}
	if n := len(outcomes); n > 0 {
		result.AvgScore1 = float64(score1) / float64(n)
		result.AvgScore2 = float64(score2) / float64(n)
	}
	return result
}

// AgentConfigs describes the named agents for the records.
func (r *Runner) AgentConfigs(names ...string) []metrics.AgentConfig {
	configs := make([]metrics.AgentConfig, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		config := metrics.AgentConfig{ID: r.IDs[name], Name: name}
		if cfg, ok := r.Factory.Levels.Get(name); ok {
			config.Depth = cfg.Depth
			config.Randomness = cfg.Randomness
			config.Adversarial = cfg.Adversarial
			config.TimeBudgetMs = cfg.TimeBudgetMs
			config.Adaptive = cfg.Adaptive
		} else if name == agent.MCTSName || name == agent.MonteCarloName {
			config.Goroutines = meta.GO_ROUTINES
		}
		configs = append(configs, config)
	}
	return configs
}

// Save writes the configs, game and move records and a YAML summary.
func Save(root, name string, configs []metrics.AgentConfig, summary any, results ...BatchResult) (string, error) {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	var games []metrics.GameRecord
	var moves []metrics.MoveRecord
	offset := 0
	for _, result := range results {
		for _, record := range result.Records {
			record.ID += offset
			games = append(games, record)
		}
		for _, record := range result.Moves {
			record.Game += offset
			moves = append(moves, record)
		}
		offset += len(result.Records)
	}
	if err := writer.WriteGameRecords(games); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")
	if err := writer.WriteMoveRecords(moves); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")
	if err := writer.WriteSummary(summary); err != nil {
		return "", err
	}
	return writer.Dir(), nil
}
