package montecarlo

import "knucklebones/game"

type outcome struct {
	truncated bool
	winner    game.Winner
	delta     int // Final score difference for the querying player
}

// playout plays s to the end, or until cfg.MaxMoves placements.
func playout(s game.GameState, player game.Player, cfg Config, dice game.Dice) outcome {
	heuristic := cfg.Policy == Heuristic ||
		(cfg.Policy == Mixed && dice.Float64() < cfg.HeuristicRatio)

	for moves := 0; !s.IsTerminal(); moves++ {
		if moves >= cfg.MaxMoves {
			return outcome{truncated: true}
		}
		s = s.MustRoll(dice)
		var col int
		if heuristic {
			col, _ = game.GreedyMove(s)
		} else {
			col = game.RandomMove(s, dice)
		}
		s = s.Play(col)
	}
	return outcome{
		winner: s.Winner(),
		delta:  s.Score(player) - s.Score(player.Opponent()),
	}
}

type tally struct {
	wins, losses, draws, truncated int
	delta                          int
}

func (t *tally) add(o outcome) {
	switch {
	case o.truncated:
		t.truncated++
		return
	case o.winner == game.Draw:
		t.draws++
	case o.delta > 0:
		t.wins++
	default:
		t.losses++
	}
	t.delta += o.delta
}

func (t *tally) merge(other tally) {
	t.wins += other.wins
	t.losses += other.losses
	t.draws += other.draws
	t.truncated += other.truncated
	t.delta += other.delta
}

// result turns counts into rates. Without completed playouts the
// probability is 0.
func (t *tally) result() SimulationResult {
	r := SimulationResult{
		Wins:      t.wins,
		Losses:    t.losses,
		Draws:     t.draws,
		Truncated: t.truncated,
	}
	if completed := r.Completed(); completed > 0 {
		r.WinProbability = float64(t.wins) / float64(completed)
		r.ExpectedScoreDelta = float64(t.delta) / float64(completed)
	}
	return r
}
