package searcher

import "math"

// Hyperparameters for MCTS

const CSquared = 2.0 // UCT exploration constant
const CPUCT = 1.5    // PUCT exploration constant

const WIN = 1.0   // Reward for winning outcome
const LOSS = -WIN // Reward for loss outcome, also used as virtual loss

// selection scores a child from its accumulated reward q, its visits n, the
// parent's visits N and the number of sibling moves.
type selection func(q, n, N float64, siblings int) float64

type uct struct {
	numerator float64
}

func newUCT(cSquared float64, N float64) *uct {
	if N == 0 {
		panic("N cannot be 0")
	}
	return &uct{numerator: cSquared * math.Log(N)}
}

func (u uct) evaluate(q float64, n float64) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	// UCT = q/n + sqrt(c^2*ln(N)/n)
	return q/n + math.Sqrt(u.numerator/n)
}

func uctSelection(cSquared float64) selection {
	return func(q, n, N float64, _ int) float64 {
		if n == 0 {
			return math.Inf(1)
		}
		return newUCT(cSquared, max(N, 1)).evaluate(q, n)
	}
}

// puctSelection uses uniform priors over the sibling moves.
func puctSelection(c float64) selection {
	return func(q, n, N float64, siblings int) float64 {
		prior := 1 / float64(max(siblings, 1))
		exploit := 0.0
		if n > 0 {
			exploit = q / n
		}
		// PUCT = q/n + c*P*sqrt(N)/(1+n)
		return exploit + c*prior*math.Sqrt(N)/(1+n)
	}
}
