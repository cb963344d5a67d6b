package game

// Move records one placement in the game history.
type Move struct {
	Turn    int    `json:"turn" yaml:"turn"`
	Player  Player `json:"player" yaml:"player"`
	Column  int    `json:"column" yaml:"column"`
	Die     Die    `json:"die" yaml:"die"`
	Removal `json:"removal" yaml:"removal"`
}

// Removal describes the opponent dice knocked out by a placement.
type Removal struct {
	Removed   int `json:"removed" yaml:"removed"`     // Dice removed from the opponent's column
	ScoreLost int `json:"scoreLost" yaml:"scoreLost"` // Opponent score lost to the removal
}

// IsAttack reports whether the move removed at least one opponent die.
func (m Move) IsAttack() bool {
	return m.Removed > 0
}
