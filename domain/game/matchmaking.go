package game

import (
	"math"
	"sort"
)

// SelectRoom places candidate in the best of the given rooms and returns
// it. Rooms waiting longest and closest in average rank come first:
// priority = waiting position + |candidate rank - average rank|.
// Rooms that banned the candidate or already seat them are skipped.
func SelectRoom(rooms []*Room, candidate Player) (*Room, error) {
	ordered := make([]*Room, len(rooms))
	copy(ordered, rooms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].createdBefore(ordered[j])
	})

	type ranked struct {
		room     *Room
		priority float64
	}
	candidates := make([]ranked, 0, len(ordered))
	rank := float64(candidate.User.Rank)
	for i, room := range ordered {
		candidates = append(candidates, ranked{
			room:     room,
			priority: float64(i) + math.Abs(rank-room.AverageRank()),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})

	username := candidate.User.Username
	for _, c := range candidates {
		if c.room.IsBanned(username) || c.room.HasPlayer(username) {
			continue
		}
		if c.room.AddPlayer(candidate) {
			return c.room, nil
		}
	}
	return nil, ErrNoRoomAvailable
}
