package agent

import (
	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/profile"
	"knucklebones/searcher"
)

// Master is the adaptive seat. It records every move of its opponent into
// its profile and searches with the configuration the profile suggests.
type Master struct {
	seat    game.Player
	profile *profile.Profile
	ctx     *searcher.Context
	last    searcher.Decision
}

// NewMaster seats a Master as seat. A nil profile starts a fresh one.
func NewMaster(seat game.Player, p *profile.Profile, options ...searcher.ContextOption) *Master {
	if p == nil {
		p = profile.New()
	}
	return &Master{seat: seat, profile: p, ctx: searcher.NewContext(options...)}
}

func (m *Master) Name() string {
	return "master"
}

func (m *Master) Profile() *profile.Profile {
	return m.profile
}

func (m *Master) FindMove(state game.GameState) (int, error) {
	d, err := searcher.Master(m.ctx, state, m.profile)
	if err != nil {
		return -1, err
	}
	m.last = d
	if !d.OK {
		return -1, ErrNoMove
	}
	return d.Column, nil
}

func (m *Master) Observe(move game.Move) {
	if move.Player != m.seat {
		m.profile.Record(move)
	}
}

// GameOver counts the game in the profile and clears the table. The profile
// itself is kept.
func (m *Master) GameOver(game.GameState) {
	m.profile.EndGame()
	m.ctx.Clear()
}

// ClearCache ends an unfinished game without counting it in the profile.
func (m *Master) ClearCache() {
	m.ctx.Clear()
}

func (m *Master) LastMetric() metrics.SearchMetric {
	return decisionMetric(m.Name(), m.last)
}
