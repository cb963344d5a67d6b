package engine

import (
	"context"

	"knucklebones/agent"
	"knucklebones/experiments/metrics"
	"knucklebones/game"
	"knucklebones/meta"

	"github.com/rs/zerolog/log"
)

type Option func(e *Local)

func WithDice(dice game.Dice) Option {
	return func(e *Local) {
		if dice != nil {
			e.dice = dice
		}
	}
}

func WithMaxTurns(turns int) Option {
	return func(e *Local) {
		if turns > 0 {
			e.maxTurns = turns
		}
	}
}

func WithCollector(c metrics.Collector) Option {
	return func(e *Local) {
		if c != nil {
			e.collector = c
		}
	}
}

// WithObserver adds an observer besides the agents themselves.
func WithObserver(o agent.Observer) Option {
	return func(e *Local) {
		e.observers = append(e.observers, o)
	}
}

// WithStart begins from state instead of a new game.
func WithStart(state game.GameState) Option {
	return func(e *Local) {
		e.state = state
	}
}

// Local runs a game in process. Agents that implement agent.Observer see
// every placement, their own included, and the final position. A game cut
// short has no final position; agents implementing agent.Clearer are told
// to drop their caches instead.
type Local struct {
	agents    [2]agent.Agent
	dice      game.Dice
	maxTurns  int
	collector metrics.Collector
	observers []agent.Observer
	state     game.GameState
}

func NewLocal(agent1, agent2 agent.Agent, options ...Option) *Local {
	e := &Local{ // Default values
		agents:    [2]agent.Agent{agent1, agent2},
		maxTurns:  meta.MAX_TURNS,
		collector: metrics.NewCollector(),
		state:     game.New(),
	}
	for _, option := range options {
		option(e)
	}
	if e.dice == nil {
		e.dice = game.NewDice()
	}
	for _, a := range e.agents {
		if o, ok := a.(agent.Observer); ok {
			e.observers = append(e.observers, o)
		}
	}
	return e
}

// State is the current position; after Run it is the final one.
func (e *Local) State() game.GameState {
	return e.state
}

func (e *Local) Run(ctx context.Context) (game.Winner, metrics.GameMetric, []metrics.MoveMetric) {
	log.Debug().Msgf("%s is starting", e.state.Player())
	e.collector.Start(e.state.Player())

	step := 1
	for !e.state.IsTerminal() && step <= e.maxTurns && ctx.Err() == nil {
		if e.state.Phase() == game.Rolling {
			e.state = e.state.MustRoll(e.dice)
		}
		player := e.state.Player()
		seat := e.agents[player]

		col, err := seat.FindMove(e.state)
		fallback := false
		if err != nil || !e.state.IsLegal(col) {
			log.Warn().Err(err).Int("column", col).Str("agent", seat.Name()).Msg("invalid move, forcing first legal column")
			col = e.state.LegalMoves()[0]
			fallback = true
		}

		next, removal, err := e.state.Apply(col)
		if err != nil {
			panic(err) // Legality was checked above
		}
		move := game.Move{Turn: e.state.Turn(), Player: player, Column: col, Die: e.state.Die(), Removal: removal}
		e.record(step, move, seat, fallback)
		e.state = next
		for _, o := range e.observers {
			o.Observe(move)
		}
		step++
	}

	truncated := !e.state.IsTerminal()
	if truncated {
		log.Info().Msgf("stopped after %d moves without a winner", step-1)
		for _, a := range e.agents {
			if c, ok := a.(agent.Clearer); ok {
				c.ClearCache()
			}
		}
	} else {
		for _, o := range e.observers {
			o.GameOver(e.state)
		}
	}
	gameMetric, moveMetrics := e.collector.Complete(e.state, truncated)
	return e.state.Winner(), gameMetric, moveMetrics
}

func (e *Local) record(step int, move game.Move, seat agent.Agent, fallback bool) {
	m := metrics.MoveMetric{
		Step:     step,
		Player:   int(move.Player) + 1,
		Column:   move.Column,
		Die:      int(move.Die),
		Removed:  move.Removed,
		Fallback: fallback,
	}
	if r, ok := seat.(agent.Reporter); ok {
		m.SearchMetric = r.LastMetric()
	}
	m.Agent = seat.Name()
	e.collector.AddMove(m)
}
