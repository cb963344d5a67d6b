package agent

import (
	"knucklebones/config"
	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/searcher"
)

// Level plays one difficulty configuration with its own search context.
type Level struct {
	cfg  config.DifficultyConfig
	opp  *config.DifficultyConfig
	ctx  *searcher.Context
	last searcher.Decision
}

func NewLevel(cfg config.DifficultyConfig, options ...searcher.ContextOption) *Level {
	return &Level{cfg: cfg, ctx: searcher.NewContext(options...)}
}

// Against makes the search model the opponent with opp instead of a mirror
// of the level's own configuration.
func (l *Level) Against(opp config.DifficultyConfig) *Level {
	l.opp = &opp
	return l
}

func (l *Level) Name() string {
	return l.cfg.Name
}

func (l *Level) Config() config.DifficultyConfig {
	return l.cfg
}

func (l *Level) FindMove(state game.GameState) (int, error) {
	d, err := searcher.Search(l.ctx, state, l.cfg, l.opp)
	if err != nil {
		return -1, err
	}
	l.last = d
	if !d.OK {
		return -1, ErrNoMove
	}
	return d.Column, nil
}

func (l *Level) Observe(game.Move) {}

// GameOver drops the transposition table, which must not outlive a game.
func (l *Level) GameOver(game.GameState) {
	l.ctx.Clear()
}

func (l *Level) ClearCache() {
	l.ctx.Clear()
}

// TTSize is the number of cached positions.
func (l *Level) TTSize() int {
	return l.ctx.TTSize()
}

func (l *Level) LastMetric() metrics.SearchMetric {
	return decisionMetric(l.Name(), l.last)
}

func decisionMetric(name string, d searcher.Decision) metrics.SearchMetric {
	return metrics.SearchMetric{
		Agent:    name,
		Reason:   string(d.Reason),
		Value:    d.Value,
		Nodes:    d.Stats.Nodes,
		Depth:    d.Stats.Depth,
		TTHits:   d.Stats.TTHits,
		Aborted:  d.Stats.Aborted,
		Duration: d.Stats.Duration,
	}
}
