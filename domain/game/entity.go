package game

import (
	"math/rand/v2"
	"slices"
)

// PowerupKind is a powerup's index into a player's availability set.
type PowerupKind int

const (
	FiftyFifty PowerupKind = iota
	DoublePoints
	StealPoints
	FreeLunch
	SecondLife

	powerupCount = 5
)

// Valid reports whether k is a known powerup.
func (k PowerupKind) Valid() bool {
	return k >= 0 && k < powerupCount
}

func (k PowerupKind) String() string {
	switch k {
	case FiftyFifty:
		return "FIFTY_FIFTY"
	case DoublePoints:
		return "DOUBLE_POINTS"
	case StealPoints:
		return "STEAL_POINTS"
	case FreeLunch:
		return "FREE_LUNCH"
	case SecondLife:
		return "SECOND_LIFE"
	default:
		return "UNKNOWN"
	}
}

// Powerup returns a pointer to k, for building actions.
func Powerup(k PowerupKind) *PowerupKind {
	return &k
}

// State is a room's lifecycle state.
type State int

const (
	StateWaiting State = iota
	StateInProgress
)

func (s State) String() string {
	if s == StateInProgress {
		return "IN_PROGRESS"
	}
	return "WAITING"
}

// User is the identity reference held by a player.
type User struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`
}

// Player is a user's seat in a room.
type Player struct {
	User     User
	Powerups [powerupCount]bool
	Points   int
	IsReady  bool
	ConnID   string
}

// NewPlayer seats u with every powerup available.
func NewPlayer(u User) Player {
	p := Player{User: u}
	for i := range p.Powerups {
		p.Powerups[i] = true
	}
	return p
}

// Username returns the player's username.
func (p Player) Username() string {
	return p.User.Username
}

// HasPowerup reports whether k is still available to the player.
func (p Player) HasPowerup(k PowerupKind) bool {
	return k.Valid() && p.Powerups[k]
}

// PlayerView is the wire representation of a player.
type PlayerView struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`
	IsReady  bool   `json:"isReady"`
	Points   int    `json:"points"`
}

// View returns the wire representation of p.
func (p Player) View() PlayerView {
	return PlayerView{
		Username: p.User.Username,
		Rank:     p.User.Rank,
		IsReady:  p.IsReady,
		Points:   p.Points,
	}
}

// Question is an immutable trivia question.
type Question struct {
	Prompt           string     `json:"question"`
	CorrectAnswer    string     `json:"correctAnswer"`
	IncorrectAnswers []string   `json:"incorrectAnswers"`
	Difficulty       Difficulty `json:"difficulty"`
}

// ShuffledAnswers returns every answer in random order and the index
// of the correct one.
func (q Question) ShuffledAnswers() ([]string, int) {
	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.IncorrectAnswers...)
	answers = append(answers, q.CorrectAnswer)
	rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers, slices.Index(answers, q.CorrectAnswer)
}

// PlayerAction is one player's submission for a round.
type PlayerAction struct {
	Player        string       `json:"username"`
	LatencyMillis int          `json:"timeDelay"`
	IsCorrect     bool         `json:"isCorrect"`
	Powerup       *PowerupKind `json:"powerupCode,omitempty"`
	Target        string       `json:"powerupVictimUsername,omitempty"`
}

// Uses reports whether the action used powerup k.
func (a PlayerAction) Uses(k PowerupKind) bool {
	return a.Powerup != nil && *a.Powerup == k
}

// Validate checks the action's shape, not its legality in a room.
func (a PlayerAction) Validate() error {
	if a.Player == "" {
		return Validationf("action has no player")
	}
	if a.LatencyMillis < 0 {
		return Validationf("response latency must not be negative")
	}
	if a.Powerup != nil && !a.Powerup.Valid() {
		return Validationf("unknown powerup code %d", *a.Powerup)
	}
	if a.Uses(StealPoints) {
		if a.Target == "" {
			return Validationf("STEAL_POINTS requires a victim")
		}
		if a.Target == a.Player {
			return Validationf("a player cannot steal from themselves")
		}
	} else if a.Target != "" {
		return Validationf("only STEAL_POINTS takes a victim")
	}
	return nil
}

// PlayerTotal is a player's cumulative score after a round. Earned is
// the change actually applied, which differs from the round delta when
// the total is clamped at zero.
type PlayerTotal struct {
	Username string `json:"username"`
	Total    int    `json:"finalScore"`
	Earned   int    `json:"earned"`
}
