package montecarlo

import (
	"errors"
	"fmt"

	"knucklebones/meta"
)

var ErrInvalidConfig = errors.New("invalid monte carlo config")

// Policy decides how playout moves are chosen.
type Policy string

const (
	Random    Policy = "random"    // Uniformly random legal column
	Heuristic Policy = "heuristic" // Best one-ply QuickValue
	Mixed     Policy = "mixed"     // Coin flip per playout between the two
)

type Config struct {
	Simulations    int     `yaml:"simulations" json:"simulations"`       // Playouts per candidate move
	Policy         Policy  `yaml:"policy" json:"policy"`                 // Playout policy
	HeuristicRatio float64 `yaml:"heuristicRatio" json:"heuristicRatio"` // Share of heuristic playouts under Mixed
	MaxMoves       int     `yaml:"maxMoves" json:"maxMoves"`             // Runaway guard per playout
	Workers        int     `yaml:"workers" json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Simulations:    500,
		Policy:         Mixed,
		HeuristicRatio: 0.5,
		MaxMoves:       meta.MAX_PLAYOUT_MOVES,
		Workers:        meta.GO_ROUTINES,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Simulations < 0:
		return fmt.Errorf("%w: negative simulations %d", ErrInvalidConfig, c.Simulations)
	case c.Policy != Random && c.Policy != Heuristic && c.Policy != Mixed:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	case c.HeuristicRatio < 0 || c.HeuristicRatio > 1:
		return fmt.Errorf("%w: heuristic ratio %v not in [0, 1]", ErrInvalidConfig, c.HeuristicRatio)
	case c.MaxMoves <= 0:
		return fmt.Errorf("%w: max moves must be positive", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: negative workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
