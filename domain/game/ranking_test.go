package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlacementDeltas(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayersLimit; n++ {
		deltas := PlacementDeltas(n)
		assert.Len(t, deltas, n)
		for i := 1; i < n; i++ {
			assert.GreaterOrEqual(t, deltas[i-1], deltas[i], "n=%d", n)
		}
	}

	assert.Equal(t, []int{0}, PlacementDeltas(1))
	assert.Empty(t, PlacementDeltas(0))

	d := PlacementDeltas(2)
	d[0] = 99
	assert.Equal(t, []int{1, -1}, PlacementDeltas(2), "returned slice must be a copy")
}

func TestFinalStandings(t *testing.T) {
	withPoints := func(name string, points int) Player {
		p := ranked(name, 0)
		p.Points = points
		return p
	}

	got := FinalStandings([]Player{
		withPoints("a", 100),
		withPoints("b", 300),
		withPoints("c", 100),
	})

	assert.Equal(t, []Standing{
		{Username: "b", FinalScore: 300, RankDelta: 2},
		{Username: "a", FinalScore: 100, RankDelta: 0},
		{Username: "c", FinalScore: 100, RankDelta: -2},
	}, got)
}
