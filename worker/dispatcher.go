package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/montecarlo"
	"knucklebones/profile"
	"knucklebones/searcher"

	"github.com/rs/zerolog/log"
)

type Option func(d *Dispatcher)

func WithLevels(levels config.Levels) Option {
	return func(d *Dispatcher) {
		d.levels = levels
	}
}

func WithMonteCarlo(cfg montecarlo.Config) Option {
	return func(d *Dispatcher) {
		d.mc = cfg
	}
}

// WithDice makes every session draw from sources forked from dice.
func WithDice(dice game.Dice) Option {
	return func(d *Dispatcher) {
		d.dice = dice
	}
}

// seat is the state one player keeps in a session: its own search context
// and its own view of the opponent.
type seat struct {
	ctx     *searcher.Context
	profile *profile.Profile
}

type session struct {
	mu    sync.Mutex // One in-flight request per session
	seats [2]seat
}

// Dispatcher routes protocol requests. Sessions are created on first use and
// isolate the transposition tables and profiles of different games.
type Dispatcher struct {
	levels config.Levels
	mc     montecarlo.Config

	mu       sync.Mutex
	dice     game.Dice
	sessions map[string]*session
}

func NewDispatcher(options ...Option) *Dispatcher {
	d := &Dispatcher{ // Default values
		levels:   config.Default(),
		mc:       montecarlo.DefaultConfig(),
		sessions: make(map[string]*session),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *Dispatcher) Levels() config.Levels {
	return d.levels
}

// Sessions is the number of live sessions.
func (d *Dispatcher) Sessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// Dispatch never fails: errors, unknown types and panics all become error
// responses carrying the request id.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("id", req.ID).Str("type", string(req.Type)).Msg("worker request panicked")
			resp = failure(req.ID, fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err := d.handle(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("id", req.ID).Str("type", string(req.Type)).Msg("worker request failed")
		return failure(req.ID, err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return failure(req.ID, err)
	}
	return Response{ID: req.ID, Type: Success, Result: data}
}

func failure(id string, err error) Response {
	return Response{ID: id, Type: Failure, Error: err.Error()}
}

func (d *Dispatcher) handle(ctx context.Context, req Request) (any, error) {
	switch req.Type {
	case ChooseMove:
		return withPayload(req, func(p MovePayload) (any, error) { return d.chooseMove(p) })
	case MasterMove:
		return withPayload(req, func(p MasterPayload) (any, error) { return d.masterMove(p) })
	case AnalyzeMoves:
		return withPayload(req, func(p AnalyzePayload) (any, error) { return d.analyzeMoves(ctx, p) })
	case RecordMove:
		return withPayload(req, d.recordMove)
	case EndGame:
		return withPayload(req, d.endGame)
	case ResetProfile:
		return withPayload(req, d.resetProfile)
	case ClearCache:
		return withPayload(req, d.clearCache)
	case ListLevels:
		return d.levels, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
}

func withPayload[P any](req Request, handle func(P) (any, error)) (any, error) {
	var payload P
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
	}
	return handle(payload)
}

func (d *Dispatcher) session(name string) *session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[name]
	if !ok {
		s = &session{}
		for i := range s.seats {
			s.seats[i] = seat{
				ctx:     searcher.NewContext(searcher.WithDice(d.newDice())),
				profile: profile.New(),
			}
		}
		d.sessions[name] = s
	}
	return s
}

// newDice must be called with d.mu held.
func (d *Dispatcher) newDice() game.Dice {
	if d.dice == nil {
		return game.NewDice()
	}
	return game.Fork(d.dice)
}

func (d *Dispatcher) resolve(level string, override *config.DifficultyConfig) (config.DifficultyConfig, error) {
	if override != nil {
		return *override, nil
	}
	cfg, ok := d.levels.Get(level)
	if !ok {
		return config.DifficultyConfig{}, fmt.Errorf("%w: unknown level %q", config.ErrInvalidConfig, level)
	}
	return cfg, nil
}

func (d *Dispatcher) chooseMove(p MovePayload) (searcher.Decision, error) {
	state, err := p.Decode()
	if err != nil {
		return searcher.Decision{}, err
	}
	cfg, err := d.resolve(p.Level, p.Config)
	if err != nil {
		return searcher.Decision{}, err
	}
	var opp *config.DifficultyConfig
	if p.Opponent != nil || p.OpponentLevel != "" {
		resolved, err := d.resolve(p.OpponentLevel, p.Opponent)
		if err != nil {
			return searcher.Decision{}, fmt.Errorf("opponent: %w", err)
		}
		opp = &resolved
	}

	s := d.session(p.Session)
	s.mu.Lock()
	defer s.mu.Unlock()
	return searcher.Search(s.seats[state.Player()].ctx, state, cfg, opp)
}

func (d *Dispatcher) masterMove(p MasterPayload) (searcher.Decision, error) {
	state, err := p.Decode()
	if err != nil {
		return searcher.Decision{}, err
	}

	s := d.session(p.Session)
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.seats[state.Player()]
	return searcher.Master(st.ctx, state, st.profile)
}

func (d *Dispatcher) analyzeMoves(ctx context.Context, p AnalyzePayload) ([]montecarlo.MoveAnalysis, error) {
	state, err := p.Decode()
	if err != nil {
		return nil, err
	}
	cfg := d.mc
	if p.Config != nil {
		cfg = *p.Config
	}
	var dice game.Dice
	if p.Seed != nil {
		dice = game.NewSeededDice(*p.Seed)
	}
	return montecarlo.AnalyzeMoves(ctx, state, cfg, dice)
}

func (d *Dispatcher) recordMove(p RecordPayload) (any, error) {
	owner := game.Player(p.Seat)
	if !owner.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeat, p.Seat)
	}
	s := d.session(p.Session)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[owner].profile.Record(p.Move)
	return s.seats[owner].profile.Snapshot(), nil
}

// endGame counts a finished game in the addressed profiles and clears their
// tables. Profiles survive unless the session is closed.
func (d *Dispatcher) endGame(p SessionPayload) (any, error) {
	err := d.eachSeat(p, func(st seat) {
		st.profile.EndGame()
		st.ctx.Clear()
	})
	if err != nil {
		return nil, err
	}
	if p.Close {
		d.mu.Lock()
		delete(d.sessions, p.Session)
		d.mu.Unlock()
	}
	return map[string]bool{"ok": true}, nil
}

func (d *Dispatcher) resetProfile(p SessionPayload) (any, error) {
	return map[string]bool{"ok": true}, d.eachSeat(p, func(st seat) { st.profile.Reset() })
}

func (d *Dispatcher) clearCache(p SessionPayload) (any, error) {
	return map[string]bool{"ok": true}, d.eachSeat(p, func(st seat) { st.ctx.Clear() })
}

func (d *Dispatcher) eachSeat(p SessionPayload, apply func(st seat)) error {
	if p.Seat != nil && !game.Player(*p.Seat).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSeat, *p.Seat)
	}
	s := d.session(p.Session)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.seats {
		if p.Seat == nil || *p.Seat == i {
			apply(st)
		}
	}
	return nil
}
