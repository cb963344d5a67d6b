package game

import "fmt"

const (
	Rows    = 3 // Slots per column
	Columns = 3 // Columns per grid
	Faces   = 6 // Sides of the die
	Slots   = Rows * Columns
)

// Die is a face value between 1 and 6. The zero value marks an empty slot.
type Die uint8

func (d Die) Valid() bool {
	return d >= 1 && d <= Faces
}

type Player int

const (
	Player1 Player = iota
	Player2
)

func (p Player) Opponent() Player {
	return 1 - p
}

func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

func (p Player) String() string {
	return fmt.Sprintf("Player%d", int(p)+1)
}

type Phase int

const (
	Rolling Phase = iota
	Placing
	Ended
)

func (p Phase) String() string {
	switch p {
	case Rolling:
		return "rolling"
	case Placing:
		return "placing"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Winner int

const (
	NoWinner Winner = iota
	WinnerPlayer1
	WinnerPlayer2
	Draw
)

func winnerOf(p Player) Winner {
	if p == Player1 {
		return WinnerPlayer1
	}
	return WinnerPlayer2
}

// Is reports whether p won the game.
func (w Winner) Is(p Player) bool {
	return w != NoWinner && w != Draw && w == winnerOf(p)
}

func (w Winner) String() string {
	switch w {
	case NoWinner:
		return ""
	case WinnerPlayer1:
		return Player1.String()
	case WinnerPlayer2:
		return Player2.String()
	case Draw:
		return "Draw"
	default:
		return fmt.Sprintf("winner(%d)", int(w))
	}
}

// StateHash packs a position (both grids, player to move and pending die) into
// a collision free key.
type StateHash uint64

// EvalFunc scores a game state from the perspective of player.
type EvalFunc func(s GameState, player Player) float64
