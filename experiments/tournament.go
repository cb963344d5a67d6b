package experiments

import (
	"context"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
)

// MaxElo caps the rating difference reported for a shutout.
const MaxElo = 400

// PairResult is a round robin pairing seen from A.
type PairResult struct {
	A         string  `yaml:"a"`
	B         string  `yaml:"b"`
	WinsA     int     `yaml:"winsA"`
	WinsB     int     `yaml:"winsB"`
	Draws     int     `yaml:"draws"`
	WinRate   float64 `yaml:"winRate"` // Draws count half
	Elo       float64 `yaml:"elo"`     // Rating of A relative to B
	AvgScoreA float64 `yaml:"avgScoreA"`
	AvgScoreB float64 `yaml:"avgScoreB"`
}

type Standing struct {
	Name    string  `yaml:"name"`
	Points  float64 `yaml:"points"` // 1 per win, 0.5 per draw
	Games   int     `yaml:"games"`
	AvgElo  float64 `yaml:"avgElo"`
	AvgDiff float64 `yaml:"avgScoreDiff"`
}

type Tournament struct {
	Pairs     []PairResult  `yaml:"pairs"`
	Standings []Standing    `yaml:"standings"`
	Batches   []BatchResult `yaml:"-"`
}

// EloDifference converts a win rate into a rating difference, clamped to
// ±MaxElo where the rate is 0 or 1.
func EloDifference(winRate float64) float64 {
	if winRate <= 0 {
		return -MaxElo
	}
	if winRate >= 1 {
		return MaxElo
	}
	elo := 400 * math.Log10(winRate/(1-winRate))
	return math.Max(-MaxElo, math.Min(MaxElo, elo))
}

// RunTournament plays every pair of entrants gamesPerPair times, alternating
// colors.
func (r *Runner) RunTournament(ctx context.Context, entrants []string, gamesPerPair int, seed uint64) (Tournament, error) {
	alternate := r.Alternate
	r.Alternate = true
	defer func() { r.Alternate = alternate }()

	standings := make(map[string]*Standing, len(entrants))
	for _, name := range entrants {
		standings[name] = &Standing{Name: name}
	}

	var t Tournament
	pairs := 0
	for i := 0; i < len(entrants); i++ {
		for j := i + 1; j < len(entrants); j++ {
			a, b := entrants[i], entrants[j]
			result, err := r.RunBatch(ctx, Matchup{Agent1: a, Agent2: b}, gamesPerPair, seed+uint64(pairs)*uint64(gamesPerPair))
			if err != nil {
				return Tournament{}, err
			}
			pairs++
			t.Batches = append(t.Batches, result)

			pair := PairResult{
				A: a, B: b,
				WinsA: result.Wins1, WinsB: result.Wins2, Draws: result.Draws,
				WinRate:   result.WinRate(),
				Elo:       EloDifference(result.WinRate()),
				AvgScoreA: result.AvgScore1,
				AvgScoreB: result.AvgScore2,
			}
			t.Pairs = append(t.Pairs, pair)
			log.Info().Msgf("%s vs %s: win rate %.2f, elo %+.0f", a, b, pair.WinRate, pair.Elo)

			decided := result.Wins1 + result.Wins2 + result.Draws
			standings[a].add(float64(result.Wins1)+float64(result.Draws)/2, decided, pair.Elo, pair.AvgScoreA-pair.AvgScoreB)
			standings[b].add(float64(result.Wins2)+float64(result.Draws)/2, decided, -pair.Elo, pair.AvgScoreB-pair.AvgScoreA)
		}
	}

	opponents := float64(max(len(entrants)-1, 1))
	for _, name := range entrants {
		s := standings[name]
		s.AvgElo /= opponents
		s.AvgDiff /= opponents
		t.Standings = append(t.Standings, *s)
	}
	slices.SortStableFunc(t.Standings, func(x, y Standing) int {
		switch {
		case x.Points > y.Points:
			return -1
		case x.Points < y.Points:
			return 1
		}
		return 0
	})
	return t, nil
}

func (s *Standing) add(points float64, games int, elo, diff float64) {
	s.Points += points
	s.Games += games
	s.AvgElo += elo
	s.AvgDiff += diff
}
