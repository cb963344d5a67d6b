package searcher

import (
	"cmp"
	"math"
	"slices"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/meta"
)

// expectimax walks MAX, MIN and CHANCE nodes for one searching player.
type expectimax struct {
	ctx    *Context
	player game.Player
	cfg    config.DifficultyConfig
	opp    config.DifficultyConfig
	eval   game.EvalParams
}

func newExpectimax(ctx *Context, player game.Player, cfg, opp config.DifficultyConfig) *expectimax {
	return &expectimax{ctx: ctx, player: player, cfg: cfg, opp: opp, eval: cfg.Eval()}
}

type MoveValue struct {
	Column int     `json:"column" yaml:"column"`
	Value  float64 `json:"value" yaml:"value"`
}

// root scores every move in order and returns the best one. complete is false
// when the budget ran out; the move whose subtree was cut short is then only
// used if nothing else was scored.
func (e *expectimax) root(state game.GameState, depth int, order []int, bias func(col int) float64) (best MoveValue, values []MoveValue, complete bool) {
	best = MoveValue{Column: order[0], Value: math.Inf(-1)}
	values = make([]MoveValue, 0, len(order))
	for _, col := range order {
		value := e.after(state.Play(col), depth-1)
		if bias != nil {
			value += bias(col)
		}
		if e.ctx.aborted && len(values) > 0 {
			return best, values, false
		}
		values = append(values, MoveValue{Column: col, Value: value})
		if value > best.Value {
			best = MoveValue{Column: col, Value: value}
		}
		if e.ctx.aborted {
			return best, values, false
		}
	}
	return best, values, true
}

// after continues from the position reached by a move: the game is either
// over or the next player rolls.
func (e *expectimax) after(next game.GameState, depth int) float64 {
	if next.IsTerminal() {
		return e.evaluate(next)
	}
	return e.chance(next, depth)
}

// chance averages the six die faces, each handed to whoever moves next.
func (e *expectimax) chance(state game.GameState, depth int) float64 {
	// The evaluation does not look at the die
	if !e.ctx.visit() || depth <= 0 {
		return e.evaluate(state)
	}
	sum := 0.0
	for face := game.Die(1); face <= game.Faces; face++ {
		sum += e.face(state, face, depth)
	}
	return sum / game.Faces
}

func (e *expectimax) face(state game.GameState, face game.Die, depth int) float64 {
	rolled, err := state.Roll(face)
	if err != nil {
		panic(err)
	}
	if rolled.Player() == e.player {
		return e.max(rolled, depth)
	}
	return e.min(rolled, depth)
}

func (e *expectimax) max(state game.GameState, depth int) float64 {
	if !e.ctx.visit() || depth <= 0 || state.IsTerminal() {
		return e.evaluate(state)
	}
	key := ttKey{hash: state.Hash(), depth: depth, max: true}
	if v, ok := e.ctx.lookup(key); ok {
		return v
	}

	best := math.Inf(-1)
	for _, col := range orderMoves(state) {
		best = max(best, e.after(state.Play(col), depth-1))
	}
	e.ctx.store(key, best)
	return best
}

func (e *expectimax) min(state game.GameState, depth int) float64 {
	if !e.ctx.visit() || depth <= 0 || state.IsTerminal() {
		return e.evaluate(state)
	}
	if !e.cfg.Adversarial {
		return e.after(state.Play(e.modeledMove(state, depth)), depth-1)
	}

	key := ttKey{hash: state.Hash(), depth: depth, max: false}
	if v, ok := e.ctx.lookup(key); ok {
		return v
	}

	best := math.Inf(1)
	for _, col := range orderMoves(state) {
		best = min(best, e.after(state.Play(col), depth-1))
	}
	e.ctx.store(key, best)
	return best
}

// modeledMove predicts the opponent's reply by playing their own
// configuration. A depth 0 opponent always plays the greedy move; searching
// opponents may play randomly, otherwise they run a nested search in a
// private context capped at the remaining depth.
func (e *expectimax) modeledMove(state game.GameState, depth int) int {
	moves := state.LegalMoves()
	if len(moves) == 1 {
		return moves[0]
	}
	if e.opp.Depth == 0 {
		col, _ := game.GreedyMove(state)
		return col
	}
	if e.opp.Randomness > 0 && e.ctx.dice.Float64() < e.opp.Randomness {
		return moves[e.ctx.dice.Intn(len(moves))]
	}

	nested := min(e.opp.Depth, depth, meta.MAX_OPPONENT_DEPTH)
	if nested <= 0 {
		col, _ := game.GreedyMove(state)
		return col
	}

	// The modeled opponent searches us as a minimizer, which keeps nesting
	// one level deep.
	oppCfg := e.opp
	oppCfg.Adversarial = true
	child := e.ctx.child()
	inner := newExpectimax(child, state.Player(), oppCfg, e.cfg)
	best, _, _ := inner.root(state, nested, orderMoves(state), nil)
	e.ctx.fold(child)
	return best.Column
}

func (e *expectimax) evaluate(state game.GameState) float64 {
	return game.Evaluate(state, e.player, e.eval)
}

// orderMoves sorts legal columns by the one-ply heuristic, best first.
func orderMoves(state game.GameState) []int {
	return orderBy(state, func(col int) float64 {
		return float64(game.QuickValue(state, col))
	})
}

func orderBy(state game.GameState, score func(col int) float64) []int {
	moves := state.LegalMoves()
	scores := make(map[int]float64, len(moves))
	for _, col := range moves {
		scores[col] = score(col)
	}
	slices.SortStableFunc(moves, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	return moves
}
