// Package worker answers engine requests in the {id, type, payload} protocol
// used by clients that offload move computation. Responses echo the id so
// that clients can match them to asynchronous requests.
package worker

import (
	"encoding/json"
	"errors"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/montecarlo"
)

type Type string

const (
	ChooseMove   Type = "chooseMove"
	MasterMove   Type = "masterMove"
	AnalyzeMoves Type = "analyzeMoves"
	RecordMove   Type = "recordMove"
	EndGame      Type = "endGame"
	ResetProfile Type = "resetProfile"
	ClearCache   Type = "clearCache"
	ListLevels   Type = "levels"
)

const (
	Success = "success"
	Failure = "error"
)

var (
	ErrUnknownType = errors.New("unknown request type")
	ErrBadPayload  = errors.New("bad payload")
	ErrUnknownSeat = errors.New("unknown seat")
)

type Request struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"` // Success or Failure
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// MovePayload asks for a move on a flattened board. Config wins over Level;
// the opponent defaults to a mirror of the searching configuration.
type MovePayload struct {
	Session string `json:"session,omitempty"`
	game.Board
	Level         string                   `json:"level,omitempty"`
	Config        *config.DifficultyConfig `json:"config,omitempty"`
	OpponentLevel string                   `json:"opponentLevel,omitempty"`
	Opponent      *config.DifficultyConfig `json:"opponent,omitempty"`
}

type MasterPayload struct {
	Session string `json:"session,omitempty"`
	game.Board
}

type AnalyzePayload struct {
	game.Board
	Config *montecarlo.Config `json:"config,omitempty"`
	Seed   *uint64            `json:"seed,omitempty"`
}

// RecordPayload adds the opponent's move to the profile kept by Seat.
type RecordPayload struct {
	Session string    `json:"session,omitempty"`
	Seat    int       `json:"seat"`
	Move    game.Move `json:"move"`
}

// SessionPayload addresses one seat, or every seat of the session when Seat
// is omitted. Close drops the session after an endGame.
type SessionPayload struct {
	Session string `json:"session,omitempty"`
	Seat    *int   `json:"seat,omitempty"`
	Close   bool   `json:"close,omitempty"`
}
