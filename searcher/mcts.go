package searcher

import (
	"sync"
	"time"

	"knucklebones/game"
)

type Option func(mcts *MCTS)

// MCTS is a tree-parallel Monte Carlo tree search with virtual loss. Chance
// nodes sample the die, decision nodes pick children by UCT or PUCT.
type MCTS struct {
	goroutines int
	duration   time.Duration
	episodes   int
	cutoff     int
	choose     selection
	evaluate   game.EvalFunc
	dice       game.Dice
	metrics    MetricsCollector
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

// WithCutoff plays random moves for up to depth plies before evaluating a
// leaf. Without it leaves are evaluated directly.
func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

// WithPUCT switches selection to PUCT with uniform priors.
func WithPUCT(c float64) Option {
	return func(m *MCTS) {
		if c > 0 {
			m.choose = puctSelection(c)
		}
	}
}

func WithEvalParams(params game.EvalParams) Option {
	return func(m *MCTS) {
		m.evaluate = game.Evaluator(params)
	}
}

func WithRand(dice game.Dice) Option {
	return func(m *MCTS) {
		if dice != nil {
			m.dice = dice
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = NewMetricsCollector()
	}
}

func NewMCTS(goroutines int, options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines: max(goroutines, 1),
		choose:     uctSelection(CSquared),
		evaluate:   game.Evaluator(game.EvalParams{Advanced: true, OffenseWeight: 0.5}),
		metrics:    NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	if m.dice == nil {
		m.dice = game.NewDice()
	}
	return m
}

// Simulate grows a fresh tree from state and returns the visit share of
// each root column.
func (m *MCTS) Simulate(state game.GameState) (map[int]float64, MoveMetrics) {
	root := m.search(state)
	return root.Policy(), m.metrics.Complete()
}

// BestMove returns the most visited root column.
func (m *MCTS) BestMove(state game.GameState) (int, bool, MoveMetrics) {
	moves := state.LegalMoves()
	switch len(moves) {
	case 0:
		return 0, false, MoveMetrics{}
	case 1:
		return moves[0], true, MoveMetrics{}
	}
	root := m.search(state)
	col, ok := root.bestMove()
	return col, ok, m.metrics.Complete()
}

func (m *MCTS) search(state game.GameState) *decision {
	state = state.WithoutHistory()
	root := newDecision(nil, state.Player().Opponent(), state)

	// Each goroutine draws from its own source forked from ours
	dice := make([]game.Dice, m.goroutines)
	for i := range dice {
		dice[i] = game.Fork(m.dice)
	}

	m.metrics.Start(m.goroutines)
	if m.episodes > 0 {
		m.iterate(root, state, dice)
	} else {
		m.countdown(root, state, dice)
	}
	return root
}

func (m *MCTS) iterate(root *decision, state game.GameState, dice []game.Dice) {
	task := make(chan any, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- nil
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(dice game.Dice) {
			defer wg.Done()

			for range task {
				m.simulate(root, state, dice)
				m.metrics.AddEpisode()
			}
		}(dice[i])
	}

	wg.Wait()
}

func (m *MCTS) countdown(root *decision, state game.GameState, dice []game.Dice) {
	done := make(chan any)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(dice game.Dice) {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
					m.simulate(root, state, dice)
					m.metrics.AddEpisode()
				}
			}
		}(dice[i])
	}

	<-time.After(m.duration)
	close(done)
	wg.Wait()
}

func (m *MCTS) simulate(root *decision, state game.GameState, dice game.Dice) {
	leaf, leafState := selectThenExpand(root, state, dice, m.choose)
	final := rollout(leafState, m.cutoff, dice)
	if final.IsTerminal() {
		m.metrics.AddFullPlayout()
	}
	backup(leaf, rewarder(final, m.evaluate))
}

func selectThenExpand(root Node, state game.GameState, dice game.Dice, choose selection) (Node, game.GameState) {
	parent := root
	child, state, selected := parent.SelectOrExpand(state, dice, choose)
	for selected && (child != parent) {
		parent = child
		child, state, selected = parent.SelectOrExpand(state, dice, choose)
	}
	return child, state
}

// rollout plays random moves for up to cutoff plies.
func rollout(state game.GameState, cutoff int, dice game.Dice) game.GameState {
	for depth := 0; depth < cutoff && !state.IsTerminal(); depth++ {
		if state.Phase() == game.Rolling {
			state = state.MustRoll(dice)
		}
		state = state.Play(game.RandomMove(state, dice))
	}
	return state
}

func backup(leaf Node, reward func(game.Player) float64) {
	node := leaf
	for node != nil {
		node = node.Backup(reward)
	}
}
