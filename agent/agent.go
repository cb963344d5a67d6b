// Package agent puts every way of choosing a column behind one interface so
// that the engine, the worker and experiments can seat any of them.
package agent

import (
	"errors"

	"knucklebones/experiments/metrics"
	"knucklebones/game"
)

var ErrNoMove = errors.New("no legal move")

type Agent interface {
	Name() string
	// FindMove returns a column for the player to move in a Placing state.
	FindMove(state game.GameState) (int, error)
}

// Observer is told about every placement and about the end of each game.
// Agents that learn across games or keep per-game caches implement it.
type Observer interface {
	Observe(m game.Move)
	GameOver(final game.GameState)
}

// Clearer drops per-game caches. The engine calls it when a game stops
// without a result, where GameOver is not sent.
type Clearer interface {
	ClearCache()
}

// Reporter exposes metrics of the agent's last decision.
type Reporter interface {
	LastMetric() metrics.SearchMetric
}

type greedy struct{}

// NewGreedy plays the best one-ply QuickValue.
func NewGreedy() Agent {
	return greedy{}
}

func (greedy) Name() string { return "greedy" }

func (greedy) FindMove(state game.GameState) (int, error) {
	col, _ := game.GreedyMove(state)
	if col < 0 {
		return -1, ErrNoMove
	}
	return col, nil
}

type random struct {
	dice game.Dice
}

func NewRandom(dice game.Dice) Agent {
	if dice == nil {
		dice = game.NewDice()
	}
	return random{dice: dice}
}

func (random) Name() string { return "random" }

func (a random) FindMove(state game.GameState) (int, error) {
	col := game.RandomMove(state, a.dice)
	if col < 0 {
		return -1, ErrNoMove
	}
	return col, nil
}
