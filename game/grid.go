package game

// Column holds up to three dice, index 0 being the bottom slot. Dice are always
// packed towards the bottom.
type Column [Rows]Die

// Score sums value*count^2 over the distinct faces in the column.
func (c Column) Score() int {
	var counts [Faces + 1]int
	for _, d := range c {
		if d != 0 {
			counts[d]++
		}
	}
	score := 0
	for face := 1; face <= Faces; face++ {
		score += face * counts[face] * counts[face]
	}
	return score
}

func (c Column) Filled() int {
	n := 0
	for _, d := range c {
		if d != 0 {
			n++
		}
	}
	return n
}

func (c Column) Full() bool {
	return c[Rows-1] != 0
}

// Count returns how many dice in the column show the given face.
func (c Column) Count(face Die) int {
	n := 0
	for _, d := range c {
		if d == face {
			n++
		}
	}
	return n
}

// Place puts the die in the lowest empty slot.
func (c Column) Place(d Die) (Column, bool) {
	for i, slot := range c {
		if slot == 0 {
			c[i] = d
			return c, true
		}
	}
	return c, false
}

// Remove drops every die showing face and slides the remaining dice down,
// keeping their relative order. It returns the compacted column and the
// number of dice removed.
func (c Column) Remove(face Die) (Column, int) {
	var out Column
	next, removed := 0, 0
	for _, d := range c {
		switch {
		case d == 0:
		case d == face:
			removed++
		default:
			out[next] = d
			next++
		}
	}
	return out, removed
}

// compact reports whether no die sits above an empty slot.
func (c Column) compact() bool {
	seenEmpty := false
	for _, d := range c {
		if d == 0 {
			seenEmpty = true
		} else if seenEmpty {
			return false
		}
	}
	return true
}

type Grid [Columns]Column

func (g Grid) Score() int {
	score := 0
	for _, c := range g {
		score += c.Score()
	}
	return score
}

func (g Grid) Filled() int {
	n := 0
	for _, c := range g {
		n += c.Filled()
	}
	return n
}

func (g Grid) Full() bool {
	for _, c := range g {
		if !c.Full() {
			return false
		}
	}
	return true
}

// Flatten encodes the grid column-major, cell col*3+row, 0 meaning empty.
func (g Grid) Flatten() [Slots]uint8 {
	var cells [Slots]uint8
	for col, c := range g {
		for row, d := range c {
			cells[col*Rows+row] = uint8(d)
		}
	}
	return cells
}

// Unflatten is the inverse of Flatten. Cells must hold values in [0, 6] and
// every column must be packed towards the bottom.
func Unflatten(cells [Slots]uint8) (Grid, error) {
	var g Grid
	for i, v := range cells {
		if v > Faces {
			return Grid{}, malformed("cell %d holds %d", i, v)
		}
		g[i/Rows][i%Rows] = Die(v)
	}
	for col, c := range g {
		if !c.compact() {
			return Grid{}, malformed("column %d has a gap below a die", col)
		}
	}
	return g, nil
}

// ScoreGain is how much the owner of grid gains by placing die in col.
func ScoreGain(g Grid, col int, die Die) int {
	placed, ok := g[col].Place(die)
	if !ok {
		return 0
	}
	return placed.Score() - g[col].Score()
}

// ScoreLoss is how much the owner of grid loses when the opponent places die
// in the facing column.
func ScoreLoss(g Grid, col int, die Die) int {
	remaining, removed := g[col].Remove(die)
	if removed == 0 {
		return 0
	}
	return g[col].Score() - remaining.Score()
}
