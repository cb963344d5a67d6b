// Package profile accumulates how an opponent plays so that the adaptive
// Master seat can exploit it.
package profile

import (
	"sync"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/meta"
)

const (
	MinGames = 3  // Completed games before the adaptive config is trusted
	MinMoves = 10 // Recorded moves before statistics are trusted

	AggressiveRate = 0.4 // Attack rate above which we turn defensive
	PassiveRate    = 0.2 // Attack rate below which we turn offensive

	uniform = 1.0 / game.Columns
)

// Profile is the view one seat keeps of its opponent. It survives across
// games until Reset and is never shared between seats.
type Profile struct {
	mu             sync.RWMutex
	columnUsage    [game.Columns]int
	attacksBy      [game.Columns]int
	highDice       [game.Columns]int // 5s and 6s placed per column
	lowDice        [game.Columns]int // 1s and 2s placed per column
	totalMoves     int
	attackMoves    int
	scoreLost      int
	gamesCompleted int
}

func New() *Profile {
	return &Profile{}
}

// Record adds one opponent move.
func (p *Profile) Record(m game.Move) {
	if m.Column < 0 || m.Column >= game.Columns {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.columnUsage[m.Column]++
	p.totalMoves++
	switch {
	case m.Die >= 5:
		p.highDice[m.Column]++
	case m.Die >= 1 && m.Die <= 2:
		p.lowDice[m.Column]++
	}
	if m.IsAttack() {
		p.attackMoves++
		p.attacksBy[m.Column]++
		p.scoreLost += m.ScoreLost
	}
}

func (p *Profile) EndGame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gamesCompleted++
}

func (p *Profile) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.columnUsage = [game.Columns]int{}
	p.attacksBy = [game.Columns]int{}
	p.highDice = [game.Columns]int{}
	p.lowDice = [game.Columns]int{}
	p.totalMoves, p.attackMoves, p.scoreLost, p.gamesCompleted = 0, 0, 0, 0
}

// Stable reports whether enough games and moves have been seen to trust
// the statistics.
func (p *Profile) Stable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stable()
}

func (p *Profile) stable() bool {
	return p.gamesCompleted >= MinGames && p.totalMoves >= MinMoves
}

// AttackRate is the share of opponent moves that removed our dice.
func (p *Profile) AttackRate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.attackRate()
}

func (p *Profile) attackRate() float64 {
	if p.totalMoves == 0 {
		return 0
	}
	return float64(p.attackMoves) / float64(p.totalMoves)
}

// ColumnFrequency is the share of opponent moves into col; uniform until
// anything is recorded.
func (p *Profile) ColumnFrequency(col int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.columnFrequency(col)
}

func (p *Profile) columnFrequency(col int) float64 {
	if p.totalMoves == 0 {
		return uniform
	}
	return float64(p.columnUsage[col]) / float64(p.totalMoves)
}

// ColumnBias rewards placing in a column the opponent favours, especially
// one holding a large share of their high dice, since our die there can
// knock theirs out.
func (p *Profile) ColumnBias(col int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.totalMoves < MinMoves || col < 0 || col >= game.Columns {
		return 0
	}
	share := uniform
	if high := p.highDice[0] + p.highDice[1] + p.highDice[2]; high > 0 {
		share = float64(p.highDice[col]) / float64(high)
	}
	return (p.columnFrequency(col)-uniform)*3 + (share-uniform)*5
}

// DefenseBias penalizes committing a valuable die to a column the opponent
// attacks more than its share.
func (p *Profile) DefenseBias(col int, die game.Die) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.totalMoves < MinMoves || p.attackMoves == 0 || col < 0 || col >= game.Columns {
		return 0
	}
	excess := float64(p.attacksBy[col])/float64(p.attackMoves) - uniform
	return -excess * float64(die) / game.Faces * p.attackRate() * 10
}

// AdaptiveConfig derives the Master seat's search parameters. Until the
// profile is stable it plays a balanced adversarial search.
func (p *Profile) AdaptiveConfig() config.DifficultyConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg := config.DifficultyConfig{
		Name:          "master",
		Depth:         5,
		OffenseWeight: 0.5,
		DefenseWeight: 0.5,
		AdvancedEval:  true,
		Adversarial:   true,
		TimeBudgetMs:  int(meta.MASTER_BUDGET.Milliseconds()),
		Adaptive:      true,
	}
	if !p.stable() {
		return cfg
	}

	switch rate := p.attackRate(); {
	case rate > AggressiveRate:
		cfg.DefenseWeight = max(0, min(1, 0.6+(rate-AggressiveRate)*0.5))
		cfg.OffenseWeight = 1 - cfg.DefenseWeight
	case rate < PassiveRate:
		cfg.OffenseWeight = 0.7
		cfg.DefenseWeight = 0.3
	}
	return cfg
}

// Snapshot is a read-only copy of the counters for reporting.
type Snapshot struct {
	ColumnUsage    [game.Columns]int `json:"columnUsage" yaml:"columnUsage"`
	AttacksBy      [game.Columns]int `json:"attacksByColumn" yaml:"attacksByColumn"`
	HighDice       [game.Columns]int `json:"highDice" yaml:"highDice"`
	LowDice        [game.Columns]int `json:"lowDice" yaml:"lowDice"`
	TotalMoves     int               `json:"totalMoves" yaml:"totalMoves"`
	AttackMoves    int               `json:"attackMoves" yaml:"attackMoves"`
	ScoreLost      int               `json:"scoreLostToAttacks" yaml:"scoreLostToAttacks"`
	GamesCompleted int               `json:"gamesCompleted" yaml:"gamesCompleted"`
	AttackRate     float64           `json:"attackRate" yaml:"attackRate"`
	Stable         bool              `json:"stable" yaml:"stable"`
}

func (p *Profile) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Snapshot{
		ColumnUsage:    p.columnUsage,
		AttacksBy:      p.attacksBy,
		HighDice:       p.highDice,
		LowDice:        p.lowDice,
		TotalMoves:     p.totalMoves,
		AttackMoves:    p.attackMoves,
		ScoreLost:      p.scoreLost,
		GamesCompleted: p.gamesCompleted,
		AttackRate:     p.attackRate(),
		Stable:         p.stable(),
	}
}
