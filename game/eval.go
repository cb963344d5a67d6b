package game

import "knucklebones/meta"

// EvalParams selects between the plain score difference and the positional
// heuristic used from medium difficulty upwards.
type EvalParams struct {
	Advanced      bool
	OffenseWeight float64
}

// Evaluate scores s from player's perspective. Finished games score
// ±meta.WinScore (0 for a draw) so that a real win always beats any
// heuristic gain.
func Evaluate(s GameState, player Player, params EvalParams) float64 {
	if s.phase == Ended {
		return Terminal(s, player)
	}

	diff := float64(s.Score(player) - s.Score(player.Opponent()))
	if !params.Advanced {
		return diff
	}

	// Positional terms fade as the board fills up
	progress := float64(s.Filled()) / float64(2*Slots)
	comboScale := 1 - progress*0.5
	attackScale := (1 - progress*0.3) * params.OffenseWeight

	mine, theirs := s.grids[player], s.grids[player.Opponent()]
	positional := 0.0
	for col := range mine {
		positional += comboPotential(mine[col]) * comboScale
		if !mine[col].Full() {
			positional += attackPotential(theirs, col) * attackScale
		}
	}
	return diff*params.OffenseWeight + positional
}

// Evaluator binds params into a reusable evaluation function.
func Evaluator(params EvalParams) EvalFunc {
	return func(s GameState, player Player) float64 {
		return Evaluate(s, player, params)
	}
}

// Terminal scores a finished game.
func Terminal(s GameState, player Player) float64 {
	switch {
	case s.winner == Draw:
		return 0
	case s.winner.Is(player):
		return meta.WinScore
	default:
		return -meta.WinScore
	}
}

// comboPotential is the expected gain from the next matching die: a pair
// with room grows by 5v, a singleton with two free slots by 3v, each with
// probability 1/6.
func comboPotential(c Column) float64 {
	empty := Rows - c.Filled()
	bonus := 0.0
	for face := 1; face <= Faces; face++ {
		switch n := c.Count(Die(face)); {
		case n == 2 && empty >= 1:
			bonus += float64(5*face) / Faces
		case n == 1 && empty >= 2:
			bonus += float64(3*face) / Faces
		}
	}
	return bonus
}

// attackPotential is the expected score the opponent loses in col if we roll
// and place there next.
func attackPotential(opponent Grid, col int) float64 {
	damage := 0
	for face := 1; face <= Faces; face++ {
		damage += ScoreLoss(opponent, col, Die(face))
	}
	return float64(damage) / Faces
}

// QuickValue is the one-ply move ordering heuristic: our immediate score gain
// plus the opponent's score loss.
func QuickValue(s GameState, col int) int {
	if !s.IsLegal(col) {
		return 0
	}
	return ScoreGain(s.grids[s.player], col, s.die) + ScoreLoss(s.grids[s.player.Opponent()], col, s.die)
}

// Normalize squashes an evaluation into [-1, 1] for tree searches that
// expect bounded rewards.
func Normalize(value float64) float64 {
	return max(-1, min(1, value/meta.NormalizationScale))
}
