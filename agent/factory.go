package agent

import (
	"fmt"

	"knucklebones/accel"
	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/meta"
	"knucklebones/montecarlo"
	"knucklebones/searcher"
)

const (
	MonteCarloName = "montecarlo"
	MCTSName       = "mcts"
	RandomName     = "random"
	GreedyName     = "greedy"
)

// Factory builds agents by name: any level name, or one of the baseline
// names above.
type Factory struct {
	Levels       config.Levels
	MonteCarlo   montecarlo.Config
	MCTSEpisodes int
	Accelerator  accel.Engine // Optional, used by non-adaptive levels
}

func NewFactory(levels config.Levels) Factory {
	return Factory{
		Levels:       levels,
		MonteCarlo:   montecarlo.DefaultConfig(),
		MCTSEpisodes: 2000,
	}
}

// Names lists everything New accepts, levels first.
func (f Factory) Names() []string {
	return append(f.Levels.Names(), MonteCarloName, MCTSName, RandomName, GreedyName)
}

// Adaptive reports whether the agent carries state across games.
func (f Factory) Adaptive(name string) bool {
	cfg, ok := f.Levels.Get(name)
	return ok && cfg.Adaptive
}

// Cost estimates the relative price of a decision by the named agent.
func (f Factory) Cost(name string) int {
	if cfg, ok := f.Levels.Get(name); ok {
		return cfg.Cost()
	}
	switch name {
	case MonteCarloName, MCTSName:
		return meta.GO_ROUTINES
	}
	return 1
}

// New seats a fresh agent behind a fallback chain.
func (f Factory) New(name string, seat game.Player, dice game.Dice) (*Chain, error) {
	if dice == nil {
		dice = game.NewDice()
	}
	if cfg, ok := f.Levels.Get(name); ok {
		if cfg.Adaptive {
			return NewChain(NewMaster(seat, nil, searcher.WithDice(dice))), nil
		}
		var options []ChainOption
		if f.Accelerator != nil {
			options = append(options, WithAccelerator(f.Accelerator, cfg, nil))
		}
		return NewChain(NewLevel(cfg, searcher.WithDice(dice)), options...), nil
	}

	switch name {
	case MonteCarloName:
		a, err := NewMonteCarlo(f.MonteCarlo, dice)
		if err != nil {
			return nil, err
		}
		return NewChain(a), nil
	case MCTSName:
		m := searcher.NewMCTS(meta.GO_ROUTINES, searcher.WithEpisodes(f.MCTSEpisodes), searcher.WithRand(dice), searcher.WithMetrics())
		return NewChain(NewMCTS(MCTSName, m, 0, dice)), nil
	case RandomName:
		return NewChain(NewRandom(dice)), nil
	case GreedyName:
		return NewChain(NewGreedy()), nil
	}
	return nil, fmt.Errorf("unknown agent %q", name)
}
