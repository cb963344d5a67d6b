package game

// GreedyMove picks the legal column with the best QuickValue, the lowest
// index winning ties. It returns -1 when there is no legal move.
func GreedyMove(s GameState) (int, int) {
	best, bestValue := -1, 0
	for _, col := range s.LegalMoves() {
		if v := QuickValue(s, col); best < 0 || v > bestValue {
			best, bestValue = col, v
		}
	}
	return best, bestValue
}

// RandomMove picks a uniformly random legal column, or -1.
func RandomMove(s GameState, dice Dice) int {
	moves := s.LegalMoves()
	if len(moves) == 0 {
		return -1
	}
	return moves[dice.Intn(len(moves))]
}
