package experiments

import (
	"context"
	"time"

	"knucklebones/game"
	"knucklebones/searcher"

	"github.com/rs/zerolog/log"
)

type ThroughputResult struct {
	Goroutines        int           `yaml:"goroutines"`
	Positions         int           `yaml:"positions"`
	Episodes          int64         `yaml:"episodes"`
	FullPlayouts      int64         `yaml:"fullPlayouts"`
	Duration          time.Duration `yaml:"duration"`
	EpisodesPerSecond float64       `yaml:"episodesPerSecond"`
}

// RunThroughput measures how many MCTS episodes each goroutine count gets
// through in duration, over the same sampled positions.
func RunThroughput(ctx context.Context, goroutines []int, duration time.Duration, positions int, seed uint64) ([]ThroughputResult, error) {
	samples := samplePositions(positions, game.NewSeededDice(seed))
	log.Info().Msg("starting throughput experiment...")

	results := make([]ThroughputResult, 0, len(goroutines))
	for _, n := range goroutines {
		mcts := searcher.NewMCTS(n, searcher.WithDuration(duration), searcher.WithMetrics(),
			searcher.WithRand(game.NewSeededDice(seed)))
		result := ThroughputResult{Goroutines: n, Positions: len(samples)}
		for _, s := range samples {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			_, m := mcts.Simulate(s)
			result.Episodes += m.Episodes
			result.FullPlayouts += m.FullPlayouts
			result.Duration += m.Duration
		}
		if result.Duration > 0 {
			result.EpisodesPerSecond = float64(result.Episodes) / result.Duration.Seconds()
		}
		log.Info().Msgf("%d goroutines: %.0f episodes/s", n, result.EpisodesPerSecond)
		results = append(results, result)
	}
	return results, nil
}

// samplePositions plays random openings of varying length and keeps the
// rolled positions.
func samplePositions(n int, dice game.Dice) []game.GameState {
	positions := make([]game.GameState, 0, n)
	for len(positions) < n {
		s := game.New()
		plies := dice.Intn(2 * game.Slots)
		for i := 0; i < plies && !s.IsTerminal(); i++ {
			s = s.MustRoll(dice)
			s = s.Play(game.RandomMove(s, dice))
		}
		if s.IsTerminal() {
			continue
		}
		s = s.MustRoll(dice)
		positions = append(positions, s.WithoutHistory())
	}
	return positions
}
