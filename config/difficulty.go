package config

import (
	"errors"
	"fmt"
	"time"

	"knucklebones/game"
)

const MaxDepth = 12

var ErrInvalidConfig = errors.New("invalid difficulty config")

// DifficultyConfig parameterizes one playing strength.
type DifficultyConfig struct {
	Name          string  `yaml:"name" json:"name"`
	Depth         int     `yaml:"depth" json:"depth"`                 // Plies searched; 0 plays greedily
	Randomness    float64 `yaml:"randomness" json:"randomness"`       // Chance of a uniformly random move
	OffenseWeight float64 `yaml:"offenseWeight" json:"offenseWeight"` // Scales score difference and attack potential
	DefenseWeight float64 `yaml:"defenseWeight" json:"defenseWeight"` // Scales pre-emptive defense in adaptive play
	AdvancedEval  bool    `yaml:"advancedEval" json:"advancedEval"`
	Adversarial   bool    `yaml:"adversarial" json:"adversarial"` // Opponent minimizes instead of being modeled
	TimeBudgetMs  int     `yaml:"timeBudgetMs,omitempty" json:"timeBudgetMs,omitempty"`
	Adaptive      bool    `yaml:"adaptive,omitempty" json:"adaptive,omitempty"` // Learns from an opponent profile
}

func (c DifficultyConfig) Validate() error {
	switch {
	case c.Depth < 0 || c.Depth > MaxDepth:
		return fmt.Errorf("%w: depth %d not in [0, %d]", ErrInvalidConfig, c.Depth, MaxDepth)
	case c.Randomness < 0 || c.Randomness > 1:
		return fmt.Errorf("%w: randomness %v not in [0, 1]", ErrInvalidConfig, c.Randomness)
	case c.OffenseWeight < 0 || c.OffenseWeight > 1:
		return fmt.Errorf("%w: offense weight %v not in [0, 1]", ErrInvalidConfig, c.OffenseWeight)
	case c.DefenseWeight < 0 || c.DefenseWeight > 1:
		return fmt.Errorf("%w: defense weight %v not in [0, 1]", ErrInvalidConfig, c.DefenseWeight)
	case c.TimeBudgetMs < 0:
		return fmt.Errorf("%w: negative time budget %d", ErrInvalidConfig, c.TimeBudgetMs)
	}
	return nil
}

func (c DifficultyConfig) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMs) * time.Millisecond
}

func (c DifficultyConfig) Eval() game.EvalParams {
	return game.EvalParams{Advanced: c.AdvancedEval, OffenseWeight: c.OffenseWeight}
}

// Cost is a rough relative price of one move decision, used to scale down
// parallelism for expensive configurations.
func (c DifficultyConfig) Cost() int {
	cost := 1 + c.Depth
	if c.Adversarial {
		cost *= 2
	}
	if c.TimeBudgetMs > 0 {
		cost++
	}
	return cost
}
