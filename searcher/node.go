package searcher

import "knucklebones/game"

// Node is a vertex of the MCTS tree. Rewards are accumulated from the
// perspective of the player who chose the move leading into the node.
type Node interface {
	SelectOrExpand(state game.GameState, dice game.Dice, choose selection) (child Node, childState game.GameState, selected bool)
	Backup(reward func(game.Player) float64) Node
	Visits() int
	applyLoss()
	stats() (rewards float64, visits float64)
}

// rewarder scores a finished or cut off playout for both players.
func rewarder(state game.GameState, evaluate game.EvalFunc) func(game.Player) float64 {
	var rewards [2]float64
	for _, p := range []game.Player{game.Player1, game.Player2} {
		rewards[p] = game.Normalize(evaluate(state, p))
	}
	return func(p game.Player) float64 {
		return rewards[p]
	}
}
