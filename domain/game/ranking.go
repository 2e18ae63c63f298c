package game

import (
	"slices"
	"sort"
)

// placementDeltas maps roster size to rank changes by finishing place.
var placementDeltas = map[int][]int{
	2: {1, -1},
	3: {2, 0, -2},
	4: {3, 1, -1, -3},
	5: {3, 2, 0, -2, -3},
	6: {3, 2, 1, -1, -2, -3},
}

// PlacementDeltas returns the rank change for each finishing place in a
// game of n players. Unsupported sizes yield zeros.
func PlacementDeltas(n int) []int {
	if d, ok := placementDeltas[n]; ok {
		return slices.Clone(d)
	}
	return make([]int, max(n, 0))
}

// Standing is a player's final placement.
type Standing struct {
	Username   string `json:"username"`
	FinalScore int    `json:"finalScore"`
	RankDelta  int    `json:"rankDelta"`
}

// FinalStandings orders players by points, highest first, keeping room
// order for ties, and attaches each placement's rank change.
func FinalStandings(players []Player) []Standing {
	ordered := slices.Clone(players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Points > ordered[j].Points
	})
	deltas := PlacementDeltas(len(ordered))
	standings := make([]Standing, len(ordered))
	for i, p := range ordered {
		standings[i] = Standing{
			Username:   p.User.Username,
			FinalScore: p.Points,
			RankDelta:  deltas[i],
		}
	}
	return standings
}
