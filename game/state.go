package game

import (
	"fmt"
	"slices"
	"strings"
)

// GameState is an immutable position. Every operation returns a new value and
// leaves the receiver untouched, so states can be shared freely between search
// branches and goroutines.
type GameState struct {
	grids   [2]Grid
	player  Player
	die     Die // 0 unless phase is Placing
	phase   Phase
	winner  Winner
	turn    int
	history []Move
}

// New returns an empty board with Player1 about to roll.
func New() GameState {
	return GameState{player: Player1, phase: Rolling, turn: 1}
}

// FromGrids builds a state from explicit grids. A non-zero die puts the state
// in the Placing phase. If a grid is already full the game is over and its
// owner is recorded as the last mover.
func FromGrids(g1, g2 Grid, player Player, die Die) (GameState, error) {
	if !player.Valid() {
		return GameState{}, malformed("player %d", int(player))
	}
	if die != 0 && !die.Valid() {
		return GameState{}, malformed("die %d", die)
	}
	for p, g := range [2]Grid{g1, g2} {
		for col, c := range g {
			for _, d := range c {
				if d > Faces {
					return GameState{}, malformed("player %d column %d holds %d", p+1, col, d)
				}
			}
			if !c.compact() {
				return GameState{}, malformed("player %d column %d has a gap below a die", p+1, col)
			}
		}
	}

	s := GameState{
		grids:  [2]Grid{g1, g2},
		player: player,
		turn:   g1.Filled() + g2.Filled() + 1,
	}
	switch {
	case g1.Full() || g2.Full():
		if die != 0 {
			return GameState{}, malformed("die %d pending on a finished game", die)
		}
		if !s.grids[player].Full() {
			s.player = player.Opponent()
		}
		s.finish()
	case die != 0:
		s.phase = Placing
		s.die = die
	default:
		s.phase = Rolling
	}
	return s, nil
}

func (s GameState) Grid(p Player) Grid { return s.grids[p] }
func (s GameState) Player() Player     { return s.player }
func (s GameState) Die() Die           { return s.die }
func (s GameState) Phase() Phase       { return s.phase }
func (s GameState) Winner() Winner     { return s.winner }
func (s GameState) Turn() int          { return s.turn }
func (s GameState) IsTerminal() bool   { return s.phase == Ended }

// Score is the summed column score of the player's grid.
func (s GameState) Score(p Player) int {
	return s.grids[p].Score()
}

// Filled counts occupied slots on both grids.
func (s GameState) Filled() int {
	return s.grids[Player1].Filled() + s.grids[Player2].Filled()
}

// History returns a copy of the moves played so far.
func (s GameState) History() []Move {
	return slices.Clone(s.history)
}

// WithoutHistory drops the move log. Search trees work on detached states so
// that each placement only copies the moves made inside the tree.
func (s GameState) WithoutHistory() GameState {
	s.history = nil
	return s
}

// LegalMoves lists the columns the player to move may place the die in, or
// nil outside the Placing phase.
func (s GameState) LegalMoves() []int {
	if s.phase != Placing {
		return nil
	}
	moves := make([]int, 0, Columns)
	for col, c := range s.grids[s.player] {
		if !c.Full() {
			moves = append(moves, col)
		}
	}
	return moves
}

// IsLegal reports whether col is a legal placement.
func (s GameState) IsLegal(col int) bool {
	return s.phase == Placing && col >= 0 && col < Columns && !s.grids[s.player][col].Full()
}

// Roll sets the die for the player to move.
func (s GameState) Roll(d Die) (GameState, error) {
	if s.phase != Rolling {
		return s, fmt.Errorf("cannot roll in %s phase: %w", s.phase, ErrWrongPhase)
	}
	if !d.Valid() {
		return s, fmt.Errorf("cannot roll %d: %w", d, ErrMalformedState)
	}
	return s.roll(d), nil
}

// RollWith draws the die from the given source.
func (s GameState) RollWith(dice Dice) (GameState, error) {
	return s.Roll(Roll(dice))
}

// MustRoll is RollWith for callers that only roll in the Rolling phase. It
// panics otherwise.
func (s GameState) MustRoll(dice Dice) GameState {
	next, err := s.RollWith(dice)
	if err != nil {
		panic(err)
	}
	return next
}

// roll skips validation for callers that already know the phase.
func (s GameState) roll(d Die) GameState {
	s.die = d
	s.phase = Placing
	return s
}

// Apply places the pending die in col, knocks out matching dice from the
// opponent's facing column and passes the turn, or ends the game when the
// mover's grid fills up.
func (s GameState) Apply(col int) (GameState, Removal, error) {
	if s.phase != Placing {
		return s, Removal{}, fmt.Errorf("cannot place in %s phase: %w", s.phase, ErrWrongPhase)
	}
	if col < 0 || col >= Columns {
		return s, Removal{}, fmt.Errorf("column %d: %w", col, ErrIllegalColumn)
	}
	if s.grids[s.player][col].Full() {
		return s, Removal{}, fmt.Errorf("column %d: %w", col, ErrColumnFull)
	}

	next, removal := s.place(col)
	next.history = append(slices.Clip(s.history), Move{
		Turn:    s.turn,
		Player:  s.player,
		Column:  col,
		Die:     s.die,
		Removal: removal,
	})
	return next, removal, nil
}

// Play is Apply for callers that have already checked legality.
func (s GameState) Play(col int) GameState {
	next, _, err := s.Apply(col)
	if err != nil {
		panic(err)
	}
	return next
}

func (s GameState) place(col int) (GameState, Removal) {
	mover, opponent := s.player, s.player.Opponent()

	s.grids[mover][col], _ = s.grids[mover][col].Place(s.die)
	before := s.grids[opponent][col].Score()
	var removed int
	s.grids[opponent][col], removed = s.grids[opponent][col].Remove(s.die)
	removal := Removal{Removed: removed, ScoreLost: before - s.grids[opponent][col].Score()}

	s.die = 0
	if s.grids[mover].Full() {
		s.finish()
		return s, removal
	}
	s.phase = Rolling
	s.player = opponent
	s.turn++
	return s, removal
}

func (s *GameState) finish() {
	s.phase = Ended
	s.die = 0
	one, two := s.grids[Player1].Score(), s.grids[Player2].Score()
	switch {
	case one > two:
		s.winner = WinnerPlayer1
	case two > one:
		s.winner = WinnerPlayer2
	default:
		s.winner = Draw
	}
}

// Hash packs both grids (27 bits each), the player to move and the pending die.
func (s GameState) Hash() StateHash {
	var h uint64
	shift := 0
	for _, g := range s.grids {
		for _, c := range g {
			for _, d := range c {
				h |= uint64(d) << shift
				shift += 3
			}
		}
	}
	h |= uint64(s.player) << shift
	h |= uint64(s.die) << (shift + 1)
	return StateHash(h)
}

func (s GameState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %d %s %s", s.turn, s.player, s.phase)
	if s.die != 0 {
		fmt.Fprintf(&b, " die=%d", s.die)
	}
	for p, g := range s.grids {
		fmt.Fprintf(&b, " | P%d %v (%d)", p+1, g.Flatten(), g.Score())
	}
	if s.winner != NoWinner {
		fmt.Fprintf(&b, " winner=%s", s.winner)
	}
	return b.String()
}
