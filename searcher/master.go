package searcher

import (
	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/profile"
)

// MasterOpponent is how the adaptive seat models its opponent: a solid
// adversarial three-ply searcher.
var MasterOpponent = config.DifficultyConfig{
	Name:          "expert",
	Depth:         3,
	OffenseWeight: 0.5,
	DefenseWeight: 0.5,
	AdvancedEval:  true,
	Adversarial:   true,
}

// Master searches with a configuration derived from what the profile has
// learned about the opponent, steering towards the columns they favour and
// away from committing high dice where they usually attack.
func Master(ctx *Context, state game.GameState, p *profile.Profile) (Decision, error) {
	cfg := p.AdaptiveConfig()
	if err := cfg.Validate(); err != nil {
		return Decision{}, err
	}
	if d, done := shortcut(ctx, state, 0); done {
		return d, nil
	}

	die := state.Die()
	bias := func(col int) float64 {
		return p.ColumnBias(col) + cfg.DefenseWeight*p.DefenseBias(col, die)
	}
	order := orderBy(state, func(col int) float64 {
		return float64(game.QuickValue(state, col)) + p.ColumnBias(col)*2
	})

	ctx.bind(cfg, MasterOpponent)
	e := newExpectimax(ctx, state.Player(), cfg, MasterOpponent)
	return e.run(state.WithoutHistory(), order, bias), nil
}
