// Package accel is the boundary to an optional faster engine. Callers ask it
// first when it reports Ready and fall back to the in-process search when it
// is still starting, unavailable, or defers with NoMove.
package accel

import (
	"context"
	"errors"

	"knucklebones/config"
	"knucklebones/game"
)

// NoMove is the column an engine answers with when it defers to the caller.
const NoMove = -1

var ErrUnavailable = errors.New("accelerator unavailable")

type Capability int32

const (
	Initializing Capability = iota
	Ready
	Unavailable
)

func (c Capability) String() string {
	switch c {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// Request is the flattened position plus the configuration to search it with.
type Request struct {
	game.Board
	Config   config.DifficultyConfig  `json:"config"`
	Opponent *config.DifficultyConfig `json:"opponent,omitempty"`
}

type Response struct {
	Column int `json:"column"`
}

func NewRequest(state game.GameState, cfg config.DifficultyConfig, opp *config.DifficultyConfig) Request {
	return Request{Board: game.Encode(state), Config: cfg, Opponent: opp}
}

type Engine interface {
	Status() Capability
	// BestMove returns a column or NoMove. It must not block on the
	// capability probe.
	BestMove(ctx context.Context, req Request) (int, error)
}
