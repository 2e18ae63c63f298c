package game

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	domain "github.com/example/trivia-rooms/domain/game"
	"github.com/example/trivia-rooms/events"
	"github.com/example/trivia-rooms/modules/questions"
	"github.com/go-monolith/mono/pkg/types"
)

// Config holds round timing.
type Config struct {
	// ScoreboardDelay is how long the scoreboard shows between rounds.
	ScoreboardDelay time.Duration
	// RoundGrace is added to the answer time before a round is forced closed.
	RoundGrace time.Duration
}

// DefaultConfig returns the default round timing.
func DefaultConfig() Config {
	return Config{
		ScoreboardDelay: 5 * time.Second,
		RoundGrace:      3 * time.Second,
	}
}

// afterFunc runs f after d and returns a function that cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type round struct {
	number int
	seq    uint64
	open   bool
	stop   func() bool
}

// RoomInfo identifies a room to a joining player.
type RoomInfo struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode"`
}

// RoomSnapshot is the public state of a room.
type RoomSnapshot struct {
	RoomID    string              `json:"roomId"`
	RoomCode  string              `json:"roomCode"`
	State     string              `json:"state"`
	Players   []domain.PlayerView `json:"players"`
	Settings  domain.SettingsView `json:"settings"`
	CreatedAt time.Time           `json:"createdAt"`
}

// RoomSummary describes a joinable public room.
type RoomSummary struct {
	RoomCode    string            `json:"roomCode"`
	PlayerCount int               `json:"playerCount"`
	MaxPlayers  int               `json:"maxPlayers"`
	AverageRank float64           `json:"averageRank"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Answer is a player's submission for the current round.
type Answer struct {
	IsCorrect     bool                `json:"isCorrect"`
	TimeDelay     int                 `json:"timeDelay"`
	PowerupCode   *domain.PowerupKind `json:"powerupCode,omitempty"`
	PowerupVictim string              `json:"powerupVictimUsername,omitempty"`
}

// Service runs every room. All room state is guarded by mu; calls to the
// question source are made without it and the room is fetched again
// afterwards.
type Service struct {
	mu        sync.Mutex
	registry  *domain.Registry
	questions questions.QuestionsPort
	notifier  Notifier
	logger    types.Logger
	config    Config
	after     afterFunc

	rounds   map[string]*round // roomID -> current round
	starting map[string]bool   // roomID -> deck being assembled
	seq      uint64
	closed   bool

	background sync.WaitGroup
}

// NewService creates a new game service.
func NewService(registry *domain.Registry, qs questions.QuestionsPort, notifier Notifier, logger types.Logger, config Config) *Service {
	return &Service{
		registry:  registry,
		questions: qs,
		notifier:  notifier,
		logger:    logger,
		config:    config,
		after:     timeAfterFunc,
		rounds:    make(map[string]*round),
		starting:  make(map[string]bool),
	}
}

// Close stops every round timer and waits for deck assembly in flight.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, r := range s.rounds {
		if r.stop != nil {
			r.stop()
		}
	}
	s.mu.Unlock()
	s.background.Wait()
}

// CreateRoom opens a WAITING room with default settings and user as its
// Game Master.
func (s *Service) CreateRoom(_ context.Context, user domain.User) (RoomInfo, error) {
	if user.Username == "" {
		return RoomInfo{}, domain.Validationf("username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.registry.CreateRoom(domain.NewPlayer(user), domain.DefaultSettings())
	if err != nil {
		return RoomInfo{}, err
	}
	s.logger.Info("Room created", "roomID", room.ID(), "roomCode", room.Code(), "gameMaster", user.Username)
	return RoomInfo{RoomID: room.ID(), RoomCode: room.Code()}, nil
}

// JoinByCode seats user in the room with the given code.
func (s *Service) JoinByCode(_ context.Context, user domain.User, code string) (RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.FetchByCode(code)
	if !ok {
		return RoomInfo{}, domain.ErrRoomNotFound
	}
	info := RoomInfo{RoomID: room.ID(), RoomCode: room.Code()}
	if room.IsBanned(user.Username) {
		return RoomInfo{}, domain.ErrBanned
	}
	if room.HasPlayer(user.Username) {
		return info, nil
	}
	if !room.IsIdle() {
		return RoomInfo{}, domain.ErrGameInProgress
	}
	if !room.AddPlayer(domain.NewPlayer(user)) {
		return RoomInfo{}, domain.ErrRoomFull
	}
	s.logger.Info("Player joined room", "roomCode", room.Code(), "username", user.Username)
	return info, nil
}

// JoinRandom places user in the best joinable public room.
func (s *Service) JoinRandom(_ context.Context, user domain.User) (RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := domain.SelectRoom(s.registry.ListJoinablePublic(), domain.NewPlayer(user))
	if err != nil {
		return RoomInfo{}, err
	}
	s.logger.Info("Player matched to room", "roomCode", room.Code(), "username", user.Username, "rank", user.Rank)
	return RoomInfo{RoomID: room.ID(), RoomCode: room.Code()}, nil
}

// GetRoom returns a snapshot of the room with the given code.
func (s *Service) GetRoom(_ context.Context, code string) (RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.FetchByCode(code)
	if !ok {
		return RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return snapshot(room), nil
}

// ListRooms returns the joinable public rooms, oldest first.
func (s *Service) ListRooms(_ context.Context) []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := s.registry.ListJoinablePublic()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		settings := room.Settings()
		summaries = append(summaries, RoomSummary{
			RoomCode:    room.Code(),
			PlayerCount: room.PlayerCount(),
			MaxPlayers:  settings.MaxPlayers(),
			AverageRank: room.AverageRank(),
			Difficulty:  settings.Difficulty(),
			CreatedAt:   room.CreatedAt(),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Attach binds a seated player's connection to the room, sends them the
// welcome snapshot and announces them to the others.
func (s *Service) Attach(ctx context.Context, roomID, username, connID string) error {
	categories, err := s.questions.ListCategories(ctx)
	if err != nil {
		s.logger.Warn("Category list unavailable for welcome", "roomID", roomID, "error", err)
		categories = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, player, err := s.seated(roomID, username)
	if err != nil {
		return err
	}
	room.AttachConnection(username, connID)

	players := room.Players()
	views := make([]domain.PlayerView, len(players))
	for i, p := range players {
		views[i] = p.View()
	}
	s.sendTo(room.ID(), username, MsgWelcomeNewPlayer, WelcomePayload{
		RoomPlayers:        views,
		RoomSettings:       room.Settings().View(),
		PossibleCategories: categories,
		RoomCode:           room.Code(),
	}, false)
	s.broadcastExcept(room.ID(), username, MsgPlayerJoined, PlayerJoinedPayload{
		NewPlayerUsername: username,
		NewPlayerRank:     player.User.Rank,
	})
	return nil
}

// Leave removes username from the room. A leaving Game Master closes it.
func (s *Service) Leave(_ context.Context, roomID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, _, err := s.seated(roomID, username)
	if err != nil {
		return err
	}

	if room.IsGameMaster(username) {
		s.closeRoom(room, MsgRoomClosed, nil)
		s.logger.Info("Room closed by game master", "roomCode", room.Code(), "username", username)
		return nil
	}

	room.RemovePlayer(username)
	s.broadcastExcept(room.ID(), username, MsgPlayerLeft, PlayerLeftPayload{PlayerUsername: username, Reason: ReasonLeft})
	s.sendTo(room.ID(), username, MsgRemovedFromRoom, RemovedPayload{Reason: ReasonLeft}, true)
	s.logger.Info("Player left room", "roomCode", room.Code(), "username", username)
	s.closeRoundIfComplete(room)
	return nil
}

// Ban removes target from the room and keeps them out of it.
func (s *Service) Ban(_ context.Context, roomID, gameMaster, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.gameMasterRoom(roomID, gameMaster)
	if err != nil {
		return err
	}
	if target == gameMaster {
		return domain.Validationf("the game master cannot ban themselves")
	}
	if !room.HasPlayer(target) {
		return domain.ErrPlayerNotInRoom
	}

	room.RemovePlayer(target)
	room.BanPlayer(target)
	s.broadcastExcept(room.ID(), target, MsgPlayerLeft, PlayerLeftPayload{PlayerUsername: target, Reason: ReasonBanned})
	s.sendTo(room.ID(), target, MsgRemovedFromRoom, RemovedPayload{Reason: ReasonBanned}, true)
	s.logger.Info("Player banned", "roomCode", room.Code(), "username", target)
	s.closeRoundIfComplete(room)
	return nil
}

// ChangeSetting applies one settings change requested by the Game Master.
func (s *Service) ChangeSetting(ctx context.Context, roomID, username, option string, value any) error {
	op, err := domain.ParseSettingOp(option, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, err = s.waitingRoom(roomID, username)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if name, ok := op.Category(); ok && op.Kind == domain.SettingAddCategory {
		known, err := s.questions.ListCategories(ctx)
		if err != nil {
			return err
		}
		if !slices.Contains(known, name) {
			return domain.ErrInvalidSetting
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.waitingRoom(roomID, username)
	if err != nil {
		return err
	}
	if err := room.UpdateSetting(op); err != nil {
		return err
	}
	s.broadcast(room.ID(), MsgChangedSetting, ChangedSettingPayload{SettingOption: option, OptionValue: value})
	return nil
}

// Ready marks username as ready to start.
func (s *Service) Ready(_ context.Context, roomID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, _, err := s.seated(roomID, username)
	if err != nil {
		return err
	}
	room.MarkReady(username)
	s.broadcast(room.ID(), MsgPlayerReadyToStartGame, PlayerPayload{PlayerUsername: username})
	return nil
}

// Emote relays an emote to the rest of the room.
func (s *Service) Emote(_ context.Context, roomID, username string, emoteCode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, _, err := s.seated(roomID, username)
	if err != nil {
		return err
	}
	s.broadcastExcept(room.ID(), username, MsgEmoteReceived, EmotePayload{Username: username, EmoteCode: emoteCode})
	return nil
}

// StartGame checks the room can start and assembles its deck in the
// background. The first question goes out once the deck is ready;
// assembly failures are reported to the Game Master.
func (s *Service) StartGame(ctx context.Context, roomID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Validationf("the game service is shutting down")
	}
	room, err := s.waitingRoom(roomID, username)
	if err != nil {
		return err
	}
	if s.starting[roomID] {
		return domain.Validationf("the game is already starting")
	}
	settings := room.Settings()
	if len(settings.Categories()) == 0 {
		return domain.ErrNoCategories
	}

	s.starting[roomID] = true
	req := questions.DeckRequest{
		Categories: settings.Categories(),
		Difficulty: settings.Difficulty(),
		Total:      settings.TotalQuestions(),
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.assemble(context.WithoutCancel(ctx), roomID, username, req)
	}()
	return nil
}

func (s *Service) assemble(ctx context.Context, roomID, gameMaster string, req questions.DeckRequest) {
	deck, err := s.questions.AssembleDeck(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.starting, roomID)

	room, ok := s.registry.FetchByID(roomID)
	if !ok {
		s.logger.Info("Room closed during deck assembly", "roomID", roomID)
		return
	}
	if err != nil {
		s.logger.Error("Deck assembly failed", "roomCode", room.Code(), "error", err)
		s.sendTo(roomID, gameMaster, MsgError, ErrorPayload{Message: errorMessage(err)}, false)
		return
	}
	if !room.IsIdle() || s.closed {
		return
	}

	room.SetQuestions(deck)
	room.UpdateState()
	s.logger.Info("Game started", "roomCode", room.Code(), "questions", len(deck), "players", room.PlayerCount())
	s.startRound(room)
}

// SubmitAnswer records username's action for the current round and
// closes the round once everyone has answered.
func (s *Service) SubmitAnswer(_ context.Context, roomID, username string, answer Answer) error {
	action := domain.PlayerAction{
		Player:        username,
		LatencyMillis: answer.TimeDelay,
		IsCorrect:     answer.IsCorrect,
		Powerup:       answer.PowerupCode,
		Target:        answer.PowerupVictim,
	}
	if err := action.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, player, err := s.seated(roomID, username)
	if err != nil {
		return err
	}
	r, ok := s.rounds[roomID]
	if !ok || !r.open {
		return domain.ErrNoActiveRound
	}
	if room.HasActed(username) {
		return domain.ErrAlreadyAnswered
	}
	if action.Powerup != nil {
		if !player.HasPowerup(*action.Powerup) {
			return domain.ErrPowerupUnavailable
		}
		if action.Uses(domain.StealPoints) && !room.HasPlayer(action.Target) {
			return domain.ErrPlayerNotInRoom
		}
		room.ConsumePowerup(username, *action.Powerup)
	}

	room.AddAction(action)
	s.broadcastExcept(roomID, username, MsgAnswerReceived, PlayerPayload{PlayerUsername: username})
	s.closeRoundIfComplete(room)
	return nil
}

// startRound pops the next question, sends it and arms the deadline.
// Callers hold mu.
func (s *Service) startRound(room *domain.Room) {
	q, ok := room.NextQuestion()
	if !ok {
		s.endGame(room)
		return
	}
	room.ResetActions()

	s.seq++
	r := s.rounds[room.ID()]
	if r == nil {
		r = &round{}
		s.rounds[room.ID()] = r
	}
	r.number++
	r.seq = s.seq
	r.open = true

	settings := room.Settings()
	answers, correct := q.ShuffledAnswers()
	s.broadcast(room.ID(), MsgStartQuestion, QuestionPayload{
		Question:     q.Prompt,
		Answers:      answers,
		CorrectIndex: correct,
		RoundNumber:  r.number,
		TimeLimit:    settings.PerQuestionSeconds(),
	})

	roomID, seq := room.ID(), r.seq
	deadline := time.Duration(settings.PerQuestionSeconds())*time.Second + s.config.RoundGrace
	r.stop = s.after(deadline, func() { s.roundDeadline(roomID, seq) })
}

func (s *Service) roundDeadline(roomID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rounds[roomID]
	if !ok || r.seq != seq || !r.open || s.closed {
		return
	}
	room, ok := s.registry.FetchByID(roomID)
	if !ok {
		return
	}
	s.logger.Debug("Round deadline reached", "roomCode", room.Code(), "round", r.number)
	s.closeRound(room, r)
}

// closeRoundIfComplete closes the open round once every seated player
// has answered. Callers hold mu.
func (s *Service) closeRoundIfComplete(room *domain.Room) {
	r, ok := s.rounds[room.ID()]
	if !ok || !r.open || !room.AllActed() {
		return
	}
	s.closeRound(room, r)
}

// closeRound scores the round, shows the scoreboard and schedules what
// comes next. Callers hold mu.
func (s *Service) closeRound(room *domain.Room, r *round) {
	r.open = false
	if r.stop != nil {
		r.stop()
	}

	settings := room.Settings()
	delta := domain.CalculateScores(room.Actions(), settings.Difficulty(), settings.PerQuestionSeconds())
	totals := room.UpdateScores(delta)

	scores := make([]RoundScore, len(totals))
	for i, t := range totals {
		scores[i] = RoundScore{
			Username:           t.Username,
			PointsEarned:       t.Earned,
			UpdatedTotalPoints: t.Total,
		}
	}
	s.broadcast(room.ID(), MsgShowScoreboard, ScoreboardPayload{Scores: scores})

	roomID, seq := room.ID(), r.seq
	r.stop = s.after(s.config.ScoreboardDelay, func() { s.advance(roomID, seq) })
}

func (s *Service) advance(roomID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rounds[roomID]
	if !ok || r.seq != seq || r.open || s.closed {
		return
	}
	room, ok := s.registry.FetchByID(roomID)
	if !ok {
		return
	}
	if room.RemainingQuestions() > 0 {
		s.startRound(room)
		return
	}
	s.endGame(room)
}

// endGame publishes the final standings and tears the room down.
// Callers hold mu.
func (s *Service) endGame(room *domain.Room) {
	standings := domain.FinalStandings(room.Players())
	if err := s.notifier.GameFinished(events.GameFinishedEvent{
		RoomID:     room.ID(),
		RoomCode:   room.Code(),
		Standings:  standings,
		FinishedAt: time.Now(),
	}); err != nil {
		s.logger.Error("Failed to publish GameFinished event", "roomCode", room.Code(), "error", err)
	}
	s.closeRoom(room, MsgEndGame, EndGamePayload{Scores: standings})
	s.logger.Info("Game finished", "roomCode", room.Code(), "players", len(standings))
}

// closeRoom sends a final message to everyone, detaches them and
// removes the room. Callers hold mu.
func (s *Service) closeRoom(room *domain.Room, msgType string, payload any) {
	if r, ok := s.rounds[room.ID()]; ok {
		if r.stop != nil {
			r.stop()
		}
		delete(s.rounds, room.ID())
	}
	s.emit(events.RoomMessageEvent{RoomID: room.ID(), Type: msgType, Close: true}, payload)
	for _, p := range room.Players() {
		room.RemovePlayer(p.Username())
	}
	s.registry.RemoveByID(room.ID())
}

// seated returns the room and the player seated in it.
func (s *Service) seated(roomID, username string) (*domain.Room, domain.Player, error) {
	room, ok := s.registry.FetchByID(roomID)
	if !ok {
		return nil, domain.Player{}, domain.ErrRoomNotFound
	}
	player, ok := room.Player(username)
	if !ok {
		return nil, domain.Player{}, domain.ErrPlayerNotInRoom
	}
	return room, player, nil
}

func (s *Service) gameMasterRoom(roomID, username string) (*domain.Room, error) {
	room, _, err := s.seated(roomID, username)
	if err != nil {
		return nil, err
	}
	if !room.IsGameMaster(username) {
		return nil, domain.ErrNotGameMaster
	}
	return room, nil
}

func (s *Service) waitingRoom(roomID, username string) (*domain.Room, error) {
	room, err := s.gameMasterRoom(roomID, username)
	if err != nil {
		return nil, err
	}
	if !room.IsIdle() {
		return nil, domain.ErrGameInProgress
	}
	return room, nil
}

func (s *Service) broadcast(roomID, msgType string, payload any) {
	s.emit(events.RoomMessageEvent{RoomID: roomID, Type: msgType}, payload)
}

func (s *Service) broadcastExcept(roomID, exclude, msgType string, payload any) {
	s.emit(events.RoomMessageEvent{RoomID: roomID, Type: msgType, Exclude: exclude}, payload)
}

func (s *Service) sendTo(roomID, username, msgType string, payload any, detach bool) {
	s.emit(events.RoomMessageEvent{RoomID: roomID, Type: msgType, To: []string{username}, Close: detach}, payload)
}

func (s *Service) emit(ev events.RoomMessageEvent, payload any) {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("Failed to encode room message", "type", ev.Type, "error", err)
			return
		}
		ev.Payload = data
	}
	if err := s.notifier.RoomMessage(ev); err != nil {
		s.logger.Error("Failed to publish room message", "type", ev.Type, "roomID", ev.RoomID, "error", err)
	}
}

func snapshot(room *domain.Room) RoomSnapshot {
	players := room.Players()
	views := make([]domain.PlayerView, len(players))
	for i, p := range players {
		views[i] = p.View()
	}
	return RoomSnapshot{
		RoomID:    room.ID(),
		RoomCode:  room.Code(),
		State:     room.State().String(),
		Players:   views,
		Settings:  room.Settings().View(),
		CreatedAt: room.CreatedAt(),
	}
}

// errorMessage returns the client-facing text for err.
func errorMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// RoomCount returns the number of active rooms.
func (s *Service) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}
