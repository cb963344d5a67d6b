package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindIndex(t *testing.T) {
	require.Equal(t, 1, FindIndex([]string{"a", "b"}, "b"))
	require.Equal(t, -1, FindIndex([]int{1, 2}, 3), "Should report a missing item")
}

func TestParseList(t *testing.T) {
	ints, err := ParseList(" 1, 2 ,3", strconv.Atoi)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, ints)

	empty, err := ParseList("  ", strconv.Atoi)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ParseList("1,x", strconv.Atoi)
	require.ErrorContains(t, err, "item 2")

	names, err := ParseList("hard,master", func(s string) (string, error) { return s, nil })
	require.NoError(t, err)
	require.Equal(t, []string{"hard", "master"}, names)
}
