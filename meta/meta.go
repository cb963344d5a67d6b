// meta/meta.go
package meta

import "time"

// MAX_NODES caps the nodes a single search may expand, whatever its depth.
const MAX_NODES = 500_000

// POLL_INTERVAL is how many nodes are expanded between wall-clock checks.
const POLL_INTERVAL = 1000

// TT_LIMIT caps the entries a transposition table accepts.
const TT_LIMIT = 100_000

// DEEPENING_CUTOFF is the share of the time budget after which iterative
// deepening stops starting new passes.
const DEEPENING_CUTOFF = 0.8

// MAX_OPPONENT_DEPTH caps nested opponent-model searches.
const MAX_OPPONENT_DEPTH = 3

// MAX_PLAYOUT_MOVES bounds a Monte Carlo playout.
const MAX_PLAYOUT_MOVES = 50

// MAX_TURNS bounds a locally played game.
const MAX_TURNS = 300

// GO_ROUTINES is the default worker count for parallel simulations.
const GO_ROUTINES = 8

// MASTER_BUDGET is the time budget of the adaptive Master search.
const MASTER_BUDGET = 100 * time.Millisecond

// WinScore is the evaluation of a won game.
const WinScore = 10000.0

// NormalizationScale maps evaluations onto [-1, 1] for MCTS rewards.
const NormalizationScale = 200.0
