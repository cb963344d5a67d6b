package game

import (
	"testing"

	"knucklebones/meta"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	basic := EvalParams{}
	advanced := EvalParams{Advanced: true, OffenseWeight: 1}

	t.Run("terminal states dominate", func(t *testing.T) {
		s := placing(t, Grid{{6, 6, 6}, {1, 2, 3}, {4, 5, 0}}, Grid{{1}}, Player1, 5)
		over := s.Play(2)

		require.Equal(t, meta.WinScore, Evaluate(over, Player1, basic))
		require.Equal(t, -meta.WinScore, Evaluate(over, Player2, advanced))
	})

	t.Run("draws are neutral", func(t *testing.T) {
		s := placing(t, Grid{{1, 2, 3}, {1, 2, 3}, {1, 2, 0}}, Grid{{3, 3}, {6}}, Player1, 3)
		require.Zero(t, Evaluate(s.Play(2), Player1, advanced))
	})

	t.Run("basic mode is the score difference", func(t *testing.T) {
		s := placing(t, Grid{{5, 5}}, Grid{{2}}, Player1, 1)
		require.Equal(t, 18.0, Evaluate(s, Player1, basic))
		require.Equal(t, -18.0, Evaluate(s, Player2, basic))
	})

	t.Run("advanced mode rewards combo potential", func(t *testing.T) {
		s := placing(t, Grid{{5, 5}}, Grid{}, Player1, 1)
		progress := 2.0 / 18
		want := 20.0 + 25.0/6*(1-progress*0.5)
		require.InDelta(t, want, Evaluate(s, Player1, advanced), 1e-9)
	})

	t.Run("advanced mode rewards attack potential", func(t *testing.T) {
		s := placing(t, Grid{}, Grid{{3, 3}}, Player1, 1)
		params := EvalParams{Advanced: true, OffenseWeight: 0.5}
		progress := 2.0 / 18
		want := -12*0.5 + 12.0/6*(1-progress*0.3)*0.5
		require.InDelta(t, want, Evaluate(s, Player1, params), 1e-9)
	})

	t.Run("positional terms fade as the board fills", func(t *testing.T) {
		early := placing(t, Grid{{4}}, Grid{}, Player1, 1)
		late := placing(t, Grid{{4}, {1, 2, 3}, {1, 2, 3}}, Grid{{}, {1, 2, 3}, {1, 2, 3}}, Player1, 1)

		bonusEarly := Evaluate(early, Player1, advanced) - Evaluate(early, Player1, basic)
		bonusLate := Evaluate(late, Player1, advanced) - Evaluate(late, Player1, basic)
		require.Greater(t, bonusEarly, bonusLate)
	})
}

func TestQuickValue(t *testing.T) {
	s := placing(t, Grid{{3}}, Grid{{3, 3}}, Player1, 3)

	require.Equal(t, 9+12, QuickValue(s, 0), "Should add our gain and their loss")
	require.Equal(t, 3, QuickValue(s, 1))
	require.Zero(t, QuickValue(s, 5), "Should ignore illegal columns")
}

func TestNormalize(t *testing.T) {
	require.Equal(t, 1.0, Normalize(meta.WinScore))
	require.Equal(t, -1.0, Normalize(-meta.WinScore))
	require.Equal(t, 0.5, Normalize(100))
}
