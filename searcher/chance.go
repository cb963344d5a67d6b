package searcher

import (
	"sync"

	"knucklebones/game"
)

// chance is the roll following a move; one child per die face.
type chance struct {
	sync.RWMutex
	parent   Node
	player   game.Player
	children [game.Faces]*decision
	rewards  float64
	visits   float64
}

func newChance(parent Node, player game.Player) *chance {
	return &chance{
		parent: parent,
		player: player,
	}
}

// SelectOrExpand rolls the die and descends into the matching outcome,
// creating it on first sight.
func (c *chance) SelectOrExpand(state game.GameState, dice game.Dice, _ selection) (Node, game.GameState, bool) {
	face := game.Roll(dice)
	rolled, err := state.Roll(face)
	if err != nil {
		panic(err)
	}

	c.Lock()
	defer c.Unlock()

	child := c.children[face-1]
	selected := child != nil
	if !selected {
		child = newDecision(c, c.player, rolled)
		c.children[face-1] = child
	}
	child.applyLoss()
	return child, rolled, selected
}

func (c *chance) applyLoss() {
	c.Lock()
	defer c.Unlock()

	c.rewards += LOSS
	c.visits++
}

func (c *chance) reverseLoss() {
	c.rewards -= LOSS
	c.visits--
}

func (c *chance) stats() (float64, float64) {
	c.RLock()
	defer c.RUnlock()

	return c.rewards, c.visits
}

func (c *chance) Backup(reward func(game.Player) float64) Node {
	c.Lock()
	defer c.Unlock()

	c.reverseLoss()

	c.rewards += reward(c.player)
	c.visits++

	return c.parent
}

func (c *chance) Visits() int {
	c.RLock()
	defer c.RUnlock()

	return int(c.visits)
}
