package game

import (
	"slices"
	"time"
)

// Room is one game room's authoritative state. A Room is not safe for
// concurrent use; the owning service serializes access.
type Room struct {
	id        string
	code      string
	players   []Player
	settings  Settings
	banned    []string
	questions []Question
	actions   []PlayerAction
	state     State
	createdAt time.Time
	seq       uint64
}

func (r *Room) ID() string           { return r.id }
func (r *Room) Code() string         { return r.code }
func (r *Room) State() State         { return r.state }
func (r *Room) CreatedAt() time.Time { return r.createdAt }
func (r *Room) Settings() Settings   { return r.settings.Clone() }
func (r *Room) IsIdle() bool         { return r.state == StateWaiting }
func (r *Room) PlayerCount() int     { return len(r.players) }

// Players returns a copy of the roster in join order.
func (r *Room) Players() []Player {
	return slices.Clone(r.players)
}

func (r *Room) indexOf(username string) int {
	return slices.IndexFunc(r.players, func(p Player) bool {
		return p.User.Username == username
	})
}

// Player returns the seated player with the given username.
func (r *Room) Player(username string) (Player, bool) {
	if i := r.indexOf(username); i >= 0 {
		return r.players[i], true
	}
	return Player{}, false
}

// HasPlayer reports whether username is seated in the room.
func (r *Room) HasPlayer(username string) bool {
	return r.indexOf(username) >= 0
}

// IsGameMaster reports whether username is the room's first player.
func (r *Room) IsGameMaster(username string) bool {
	return len(r.players) > 0 && r.players[0].User.Username == username
}

// AddPlayer seats p if there is room. It does not de-duplicate.
func (r *Room) AddPlayer(p Player) bool {
	if len(r.players) >= r.settings.MaxPlayers() {
		return false
	}
	r.players = append(r.players, p)
	return true
}

// RemovePlayer removes the first player with username, if any.
func (r *Room) RemovePlayer(username string) {
	if i := r.indexOf(username); i >= 0 {
		r.players = slices.Delete(r.players, i, i+1)
	}
}

// BanPlayer records a ban. It does not remove the player.
func (r *Room) BanPlayer(username string) {
	r.banned = append(r.banned, username)
}

// IsBanned reports whether username was banned from the room.
func (r *Room) IsBanned(username string) bool {
	return slices.Contains(r.banned, username)
}

// UpdateSetting applies op to the room's settings. Lowering capacity
// below the current roster is rejected.
func (r *Room) UpdateSetting(op SettingOp) error {
	if op.Kind == SettingMaxPlayers && op.Number < len(r.players) {
		return Validationf("room already has %d players", len(r.players))
	}
	next := r.settings.Clone()
	if err := op.Apply(&next); err != nil {
		return err
	}
	r.settings = next
	return nil
}

// UpdateState moves the room to IN_PROGRESS. Repeated calls are no-ops.
func (r *Room) UpdateState() {
	r.state = StateInProgress
}

// SetQuestions stores an assembled deck.
func (r *Room) SetQuestions(qs []Question) {
	r.questions = slices.Clone(qs)
}

// NextQuestion pops the front of the question queue.
func (r *Room) NextQuestion() (Question, bool) {
	if len(r.questions) == 0 {
		return Question{}, false
	}
	q := r.questions[0]
	r.questions = r.questions[1:]
	return q, true
}

// RemainingQuestions returns the number of queued questions.
func (r *Room) RemainingQuestions() int {
	return len(r.questions)
}

// AddAction appends a to the action log. Callers enforce one action
// per player per round.
func (r *Room) AddAction(a PlayerAction) {
	r.actions = append(r.actions, a)
}

// HasActed reports whether username already has an action this round.
func (r *Room) HasActed(username string) bool {
	return slices.ContainsFunc(r.actions, func(a PlayerAction) bool {
		return a.Player == username
	})
}

// Actions returns a copy of this round's action log.
func (r *Room) Actions() []PlayerAction {
	return slices.Clone(r.actions)
}

// AllActed reports whether every seated player has submitted.
func (r *Room) AllActed() bool {
	for _, p := range r.players {
		if !r.HasActed(p.User.Username) {
			return false
		}
	}
	return true
}

// ResetActions clears the action log between rounds.
func (r *Room) ResetActions() {
	r.actions = nil
}

// UpdateScores adds delta[username] to every player's total, never
// going below zero, and returns the new totals in room order.
func (r *Room) UpdateScores(delta map[string]int) []PlayerTotal {
	totals := make([]PlayerTotal, 0, len(r.players))
	for i := range r.players {
		p := &r.players[i]
		before := p.Points
		p.Points = max(before+delta[p.User.Username], 0)
		totals = append(totals, PlayerTotal{
			Username: p.User.Username,
			Total:    p.Points,
			Earned:   p.Points - before,
		})
	}
	return totals
}

// MarkReady flags username as ready to start.
func (r *Room) MarkReady(username string) bool {
	i := r.indexOf(username)
	if i < 0 {
		return false
	}
	r.players[i].IsReady = true
	return true
}

// AttachConnection records the routing token for username.
func (r *Room) AttachConnection(username, connID string) bool {
	i := r.indexOf(username)
	if i < 0 {
		return false
	}
	r.players[i].ConnID = connID
	return true
}

// ConsumePowerup marks k as used by username. It reports false if the
// player is absent or the powerup was already spent.
func (r *Room) ConsumePowerup(username string, k PowerupKind) bool {
	i := r.indexOf(username)
	if i < 0 || !r.players[i].HasPowerup(k) {
		return false
	}
	r.players[i].Powerups[k] = false
	return true
}

// AverageRank returns the mean rank of the seated players.
func (r *Room) AverageRank() float64 {
	if len(r.players) == 0 {
		return 0
	}
	total := 0
	for _, p := range r.players {
		total += p.User.Rank
	}
	return float64(total) / float64(len(r.players))
}

// createdBefore orders rooms by creation time, then creation sequence.
func (r *Room) createdBefore(other *Room) bool {
	if !r.createdAt.Equal(other.createdAt) {
		return r.createdAt.Before(other.createdAt)
	}
	return r.seq < other.seq
}
