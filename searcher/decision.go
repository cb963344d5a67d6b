package searcher

import (
	"math"
	"sync"

	"knucklebones/game"
)

// decision is a position where a player chooses a column.
type decision struct {
	sync.RWMutex
	parent   Node
	player   game.Player // Reward perspective
	mover    game.Player // Player choosing among the children
	moves    []int
	children []Node
	rewards  float64
	visits   float64
}

func newDecision(parent Node, player game.Player, state game.GameState) *decision {
	moves := orderMoves(state) // Expand the heuristically best columns first
	return &decision{
		parent:   parent,
		player:   player,
		mover:    state.Player(),
		moves:    moves,
		children: make([]Node, 0, len(moves)),
	}
}

func (d *decision) SelectOrExpand(state game.GameState, _ game.Dice, choose selection) (Node, game.GameState, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.moves) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.moves) > len(d.children) { // Expandable node
		child, state := d.addChild(state)
		child.applyLoss()
		return child, state, false
	}

	// Fully expanded node
	ith := d.pickChild(choose)
	child := d.children[ith]
	child.applyLoss()
	return child, state.Play(d.moves[ith]), true
}

func (d *decision) addChild(state game.GameState) (Node, game.GameState) {
	next := state.Play(d.moves[len(d.children)])
	var child Node
	if next.IsTerminal() {
		child = newDecision(d, d.mover, next)
	} else {
		child = newChance(d, d.mover)
	}
	d.children = append(d.children, child)
	return child, next
}

func (d *decision) pickChild(choose selection) int {
	maxIndex := 0
	maxScore := math.Inf(-1)
	for i, child := range d.children {
		q, n := child.stats()
		score := choose(q, n, d.visits, len(d.moves))
		if score == math.Inf(1) {
			return i
		}
		if score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}

func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += LOSS
	d.visits++
}

func (d *decision) reverseLoss() {
	d.rewards -= LOSS
	d.visits--
}

func (d *decision) stats() (float64, float64) {
	d.RLock()
	defer d.RUnlock()

	return d.rewards, d.visits
}

func (d *decision) Backup(reward func(game.Player) float64) Node {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}

	d.rewards += reward(d.player)
	d.visits++

	return d.parent
}

func (d *decision) Visits() int {
	d.RLock()
	defer d.RUnlock()

	return int(d.visits)
}

// Policy maps each expanded column to its share of the visits.
func (d *decision) Policy() map[int]float64 {
	d.RLock()
	defer d.RUnlock()

	policy := make(map[int]float64, len(d.children))
	total := 0
	for _, child := range d.children {
		total += child.Visits()
	}
	if total == 0 {
		return policy
	}
	for i, child := range d.children {
		policy[d.moves[i]] = float64(child.Visits()) / float64(total)
	}
	return policy
}

// bestMove is the most visited column.
func (d *decision) bestMove() (int, bool) {
	d.RLock()
	defer d.RUnlock()

	if len(d.children) == 0 {
		return 0, false
	}
	bestIndex, maxVisits := 0, -1
	for i, child := range d.children {
		if v := child.Visits(); v > maxVisits {
			bestIndex, maxVisits = i, v
		}
	}
	return d.moves[bestIndex], true
}
