package game

import "math"

// MaxScore returns the points a correct, instant answer is worth.
func MaxScore(d Difficulty) int {
	switch d {
	case Medium:
		return 200
	case Hard:
		return 300
	default:
		return 100
	}
}

// baseScore scores a single correct answer with linear time decay.
func baseScore(latencyMillis, budgetMillis, maxScore int) int {
	if budgetMillis <= 0 || latencyMillis > budgetMillis {
		return 0
	}
	factor := float64(budgetMillis-latencyMillis) / float64(budgetMillis)
	return int(math.Round(factor * float64(maxScore)))
}

// CalculateScores converts one round's actions into per-player score
// deltas. Players without an action are absent from the result.
//
// FREE_LUNCH players receive the lowest positive base score of the
// round. Thieves split a victim's base score evenly (floor division);
// the victim loses the whole base score and any remainder is dropped.
func CalculateScores(actions []PlayerAction, difficulty Difficulty, perQuestionSeconds int) map[string]int {
	maxScore := MaxScore(difficulty)
	budget := perQuestionSeconds * 1000

	base := make(map[string]int, len(actions))
	for _, a := range actions {
		score := 0
		if a.IsCorrect && !a.Uses(FreeLunch) {
			score = baseScore(a.LatencyMillis, budget, maxScore)
			if a.Uses(DoublePoints) {
				score *= 2
			}
		}
		base[a.Player] = score
	}

	floor := 0
	for _, a := range actions {
		if a.Uses(FreeLunch) {
			continue
		}
		if s := base[a.Player]; s > 0 && (floor == 0 || s < floor) {
			floor = s
		}
	}
	for _, a := range actions {
		if a.Uses(FreeLunch) {
			base[a.Player] = floor
		}
	}

	thieves := make(map[string][]string)
	for _, a := range actions {
		if a.Uses(StealPoints) && a.Target != "" {
			thieves[a.Target] = append(thieves[a.Target], a.Player)
		}
	}

	delta := make(map[string]int, len(base))
	for player, score := range base {
		delta[player] = score
	}
	for victim, ts := range thieves {
		victimBase, ok := base[victim]
		if !ok {
			continue
		}
		share := victimBase / len(ts)
		for _, thief := range ts {
			delta[thief] += share
		}
		delta[victim] -= victimBase
	}
	return delta
}
