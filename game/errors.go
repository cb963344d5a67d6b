package game

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase     = errors.New("wrong phase")
	ErrIllegalColumn  = errors.New("illegal column")
	ErrColumnFull     = errors.New("column is full")
	ErrMalformedState = errors.New("malformed state")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedState, fmt.Sprintf(format, args...))
}
