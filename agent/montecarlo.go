package agent

import (
	"context"
	"time"

	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/montecarlo"
)

// MonteCarlo plays the column with the best simulated win probability.
type MonteCarlo struct {
	estimator *montecarlo.Estimator
	last      metrics.SearchMetric
}

func NewMonteCarlo(cfg montecarlo.Config, dice game.Dice) (*MonteCarlo, error) {
	e, err := montecarlo.NewEstimator(cfg, montecarlo.WithDice(dice))
	if err != nil {
		return nil, err
	}
	return &MonteCarlo{estimator: e}, nil
}

func (a *MonteCarlo) Name() string {
	return "montecarlo"
}

func (a *MonteCarlo) FindMove(state game.GameState) (int, error) {
	start := time.Now()
	analyses, err := a.estimator.Analyze(context.Background(), state)
	if err != nil {
		return -1, err
	}
	if len(analyses) == 0 {
		return -1, ErrNoMove
	}

	playouts := 0
	for _, analysis := range analyses {
		playouts += analysis.Completed()
	}
	a.last = metrics.SearchMetric{
		Agent:        a.Name(),
		Reason:       "simulation",
		Value:        analyses[0].WinProbability,
		FullPlayouts: playouts,
		Duration:     time.Since(start),
	}
	return analyses[0].Column, nil
}

func (a *MonteCarlo) LastMetric() metrics.SearchMetric {
	return a.last
}
