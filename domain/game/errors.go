package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a game error for transports.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindCapacity
	KindCollaborator
	KindPartialContent
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindCapacity:
		return "capacity"
	case KindCollaborator:
		return "collaborator"
	case KindPartialContent:
		return "partial_content"
	default:
		return "internal"
	}
}

// Error is the error type returned by game operations.
// Code is stable and travels across service boundaries.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so errors rebuilt
// from a service reply still compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

var sentinels = map[string]*Error{}

func sentinel(kind ErrorKind, code, message string) *Error {
	e := &Error{Kind: kind, Code: code, Message: message}
	sentinels[code] = e
	return e
}

// Sentinel errors.
var (
	ErrValidation         = sentinel(KindValidation, "validation", "invalid request")
	ErrRoomNotFound       = sentinel(KindNotFound, "room_not_found", "the game room could not be found")
	ErrPlayerNotInRoom    = sentinel(KindNotFound, "player_not_in_room", "player is not in this game room")
	ErrNoRoomAvailable    = sentinel(KindNotFound, "no_room_available", "no game rooms available at the moment")
	ErrRoomFull           = sentinel(KindCapacity, "room_full", "the game room is currently full")
	ErrBanned             = sentinel(KindCapacity, "banned", "you are banned from this game room")
	ErrGameInProgress     = sentinel(KindCapacity, "game_in_progress", "the game has already started")
	ErrNoCategories       = sentinel(KindValidation, "no_categories", "no categories selected")
	ErrNotGameMaster      = sentinel(KindValidation, "not_game_master", "you must be the game room owner to do this")
	ErrInvalidSetting     = sentinel(KindValidation, "invalid_setting", "invalid settings configuration")
	ErrAlreadyAnswered    = sentinel(KindValidation, "already_answered", "answer already submitted for this round")
	ErrPowerupUnavailable = sentinel(KindValidation, "powerup_unavailable", "powerup is not available")
	ErrInvalidAction      = sentinel(KindValidation, "invalid_action", "invalid player action")
	ErrNoActiveRound      = sentinel(KindValidation, "no_active_round", "no question is in progress")
	ErrContentUnavailable = sentinel(KindCollaborator, "content_unavailable", "trivia content source is unavailable")
	ErrCodeSpaceExhausted = sentinel(KindInternal, "code_space_exhausted", "could not generate a unique room code")
)

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return "internal"
}

// ErrorFromCode rebuilds an error received over a service boundary.
func ErrorFromCode(code, message string) error {
	if s, ok := sentinels[code]; ok {
		if message == "" || message == s.Message {
			return s
		}
		return &Error{Kind: s.Kind, Code: s.Code, Message: message}
	}
	return &Error{Kind: KindInternal, Code: code, Message: message}
}
