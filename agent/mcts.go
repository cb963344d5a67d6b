package agent

import (
	"math"

	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/searcher"
)

// MCTS plays from the visit distribution of a tree search. With temperature
// 0 it plays the most visited column, otherwise it samples from the visits
// raised to 1/temperature.
type MCTS struct {
	name        string
	mcts        *searcher.MCTS
	temperature float64
	dice        game.Dice
	last        metrics.SearchMetric
}

func NewMCTS(name string, mcts *searcher.MCTS, temperature float64, dice game.Dice) *MCTS {
	if dice == nil {
		dice = game.NewDice()
	}
	return &MCTS{name: name, mcts: mcts, temperature: temperature, dice: dice}
}

func (a *MCTS) Name() string {
	return a.name
}

func (a *MCTS) FindMove(state game.GameState) (int, error) {
	switch moves := state.LegalMoves(); len(moves) {
	case 0:
		return -1, ErrNoMove
	case 1:
		a.last = metrics.SearchMetric{Agent: a.name, Reason: "forced"}
		return moves[0], nil
	}

	policy, m := a.mcts.Simulate(state)
	a.last = metrics.SearchMetric{
		Agent:        a.name,
		Reason:       "mcts",
		Episodes:     int(m.Episodes),
		FullPlayouts: int(m.FullPlayouts),
		Duration:     m.Duration,
	}
	if len(policy) == 0 {
		return -1, ErrNoMove
	}
	if a.temperature <= 0 {
		return findMax(policy), nil
	}
	return sample(adjustTemperature(policy, a.temperature), a.dice), nil
}

func (a *MCTS) LastMetric() metrics.SearchMetric {
	return a.last
}

// findMax breaks ties towards the lowest column so results do not depend on
// map order.
func findMax(policy map[int]float64) int {
	best, bestVisits := -1, -1.0
	for col := 0; col < game.Columns; col++ {
		if visits, ok := policy[col]; ok && visits > bestVisits {
			best, bestVisits = col, visits
		}
	}
	return best
}

func adjustTemperature(policy map[int]float64, temperature float64) map[int]float64 {
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[int]float64, len(policy))
	for col, visits := range policy {
		prob := math.Pow(visits, exponent)
		sum += prob
		adjusted[col] = prob
	}
	if sum == 0 {
		return policy
	}
	for col := range adjusted {
		adjusted[col] /= sum
	}
	return adjusted
}

func sample(policy map[int]float64, dice game.Dice) int {
	sampled := dice.Float64()
	cumulative := 0.0
	last := -1
	for col := 0; col < game.Columns; col++ {
		prob, ok := policy[col]
		if !ok {
			continue
		}
		last = col
		cumulative += prob
		if sampled < cumulative {
			return col
		}
	}
	return last // Rounding errors
}
