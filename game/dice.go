package game

import (
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"
)

// Dice is the source of every random draw in the engine: die rolls, playout
// policies and randomized difficulty. Implementations need not be safe for
// concurrent use; give each goroutine its own via Fork.
type Dice interface {
	Intn(n int) int
	Float64() float64
}

// NewDice returns an unseeded, fast source for live play.
func NewDice() Dice {
	return frand.New()
}

// NewSeededDice returns a reproducible PCG source.
func NewSeededDice(seed uint64) Dice {
	return rand.New(rand.NewSource(seed))
}

// Roll draws a face between 1 and 6.
func Roll(d Dice) Die {
	return Die(d.Intn(Faces) + 1)
}

// Fork derives an independent seeded source from d, so that workers fed from
// a seeded parent stay reproducible.
func Fork(d Dice) Dice {
	return NewSeededDice(uint64(d.Intn(1 << 62)))
}
