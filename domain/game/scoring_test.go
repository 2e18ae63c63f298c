package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxScore(t *testing.T) {
	assert.Equal(t, 100, MaxScore(Easy))
	assert.Equal(t, 200, MaxScore(Medium))
	assert.Equal(t, 300, MaxScore(Hard))
}

func TestCalculateScores(t *testing.T) {
	tests := []struct {
		name       string
		actions    []PlayerAction
		difficulty Difficulty
		seconds    int
		want       map[string]int
	}{
		{
			name:       "linear decay",
			actions:    []PlayerAction{{Player: "a", LatencyMillis: 5000, IsCorrect: true}},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"a": 75},
		},
		{
			name:       "instant answer scores max",
			actions:    []PlayerAction{{Player: "a", LatencyMillis: 0, IsCorrect: true}},
			difficulty: Hard,
			seconds:    10,
			want:       map[string]int{"a": 300},
		},
		{
			name: "late or wrong answers score zero",
			actions: []PlayerAction{
				{Player: "late", LatencyMillis: 20001, IsCorrect: true},
				{Player: "deadline", LatencyMillis: 20000, IsCorrect: true},
				{Player: "wrong", LatencyMillis: 100, IsCorrect: false},
			},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"late": 0, "deadline": 0, "wrong": 0},
		},
		{
			name:       "double points doubles the rounded score",
			actions:    []PlayerAction{{Player: "a", LatencyMillis: 3333, IsCorrect: true, Powerup: Powerup(DoublePoints)}},
			difficulty: Easy,
			seconds:    10,
			want:       map[string]int{"a": 134},
		},
		{
			name: "free lunch takes the round floor",
			actions: []PlayerAction{
				{Player: "x", LatencyMillis: 4000, IsCorrect: true},
				{Player: "y", IsCorrect: false, Powerup: Powerup(FreeLunch)},
			},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"x": 80, "y": 80},
		},
		{
			name: "free lunch ignores zero scores",
			actions: []PlayerAction{
				{Player: "x", LatencyMillis: 0, IsCorrect: true},
				{Player: "z", IsCorrect: false},
				{Player: "w", LatencyMillis: 10000, IsCorrect: true},
				{Player: "y", Powerup: Powerup(FreeLunch)},
			},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"x": 100, "z": 0, "w": 50, "y": 50},
		},
		{
			name:       "free lunch with nobody scoring",
			actions:    []PlayerAction{{Player: "y", IsCorrect: true, Powerup: Powerup(FreeLunch)}},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"y": 0},
		},
		{
			name: "single thief",
			actions: []PlayerAction{
				{Player: "victim", LatencyMillis: 0, IsCorrect: true},
				{Player: "thief", IsCorrect: false, Powerup: Powerup(StealPoints), Target: "victim"},
			},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"victim": 0, "thief": 100},
		},
		{
			name: "steal remainder is dropped",
			actions: []PlayerAction{
				{Player: "v", LatencyMillis: 0, IsCorrect: true},
				{Player: "t1", Powerup: Powerup(StealPoints), Target: "v"},
				{Player: "t2", Powerup: Powerup(StealPoints), Target: "v"},
				{Player: "t3", Powerup: Powerup(StealPoints), Target: "v"},
			},
			difficulty: Easy,
			seconds:    20,
			want:       map[string]int{"v": 0, "t1": 33, "t2": 33, "t3": 33},
		},
		{
			name: "victim without an action is skipped",
			actions: []PlayerAction{
				{Player: "t", LatencyMillis: 0, IsCorrect: true, Powerup: Powerup(StealPoints), Target: "absent"},
			},
			difficulty: Medium,
			seconds:    20,
			want:       map[string]int{"t": 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScores(tt.actions, tt.difficulty, tt.seconds)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateScores_AbsentPlayers(t *testing.T) {
	got := CalculateScores(nil, Easy, 20)
	assert.Empty(t, got)
}

func TestCalculateScores_StealConservation(t *testing.T) {
	for thieves := 1; thieves <= 5; thieves++ {
		for latency := 0; latency <= 20000; latency += 1250 {
			actions := []PlayerAction{{Player: "v", LatencyMillis: latency, IsCorrect: true}}
			for i := 0; i < thieves; i++ {
				actions = append(actions, PlayerAction{
					Player:  string(rune('a' + i)),
					Powerup: Powerup(StealPoints),
					Target:  "v",
				})
			}

			victimBase := baseScore(latency, 20000, MaxScore(Easy))
			got := CalculateScores(actions, Easy, 20)

			stolen := 0
			for i := 0; i < thieves; i++ {
				stolen += got[string(rune('a'+i))]
			}
			assert.LessOrEqual(t, stolen, victimBase)
			assert.Equal(t, 0, got["v"])
			if victimBase%thieves == 0 {
				assert.Equal(t, victimBase, stolen)
			}
		}
	}
}
