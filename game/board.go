package game

// Board is the flattened wire form of a position shared with external
// engines and workers: nine cells per grid, column-major, 0 for empty.
type Board struct {
	Grid1  [Slots]uint8 `json:"grid1" yaml:"grid1"`
	Grid2  [Slots]uint8 `json:"grid2" yaml:"grid2"`
	Player int          `json:"player" yaml:"player"` // 0 or 1
	Die    uint8        `json:"die" yaml:"die"`       // 0 when no die is pending
}

func Encode(s GameState) Board {
	return Board{
		Grid1:  s.grids[Player1].Flatten(),
		Grid2:  s.grids[Player2].Flatten(),
		Player: int(s.player),
		Die:    uint8(s.die),
	}
}

// Decode validates the board and rebuilds the position. The move history is
// not part of the wire form.
func (b Board) Decode() (GameState, error) {
	g1, err := Unflatten(b.Grid1)
	if err != nil {
		return GameState{}, err
	}
	g2, err := Unflatten(b.Grid2)
	if err != nil {
		return GameState{}, err
	}
	if b.Die > Faces {
		return GameState{}, malformed("die %d", b.Die)
	}
	return FromGrids(g1, g2, Player(b.Player), Die(b.Die))
}
