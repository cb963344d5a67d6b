// Package engine plays whole games between two seated agents.
package engine

import (
	"context"

	"knucklebones/experiments/metrics"
	"knucklebones/game"
)

type Engine interface {
	// Run plays until the game ends, the turn ceiling is reached or ctx is done
	Run(ctx context.Context) (winner game.Winner, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric)
}
