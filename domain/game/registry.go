package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// CodeLength is the length of a room join code.
	CodeLength = 6

	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 32
)

// CodeGenerator returns a candidate room code.
type CodeGenerator func() string

// NewCodeGenerator returns a generator of uppercase alphanumeric codes.
func NewCodeGenerator() (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create code generator: %w", err)
	}
	return gen, nil
}

// Registry owns every active room, keyed by join code. It is not safe
// for concurrent use.
type Registry struct {
	rooms   map[string]*Room
	newCode CodeGenerator
	now     func() time.Time
	seq     uint64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCodeGenerator overrides the join code source.
func WithCodeGenerator(gen CodeGenerator) RegistryOption {
	return func(r *Registry) { r.newCode = gen }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newCode == nil {
		gen, err := NewCodeGenerator()
		if err != nil {
			return nil, err
		}
		r.newCode = gen
	}
	return r, nil
}

// CreateRoom registers a WAITING room whose only player is gameMaster.
func (r *Registry) CreateRoom(gameMaster Player, settings Settings) (*Room, error) {
	code, err := r.uniqueCode()
	if err != nil {
		return nil, err
	}
	r.seq++
	room := &Room{
		id:        uuid.New().String(),
		code:      code,
		players:   []Player{gameMaster},
		settings:  settings.Clone(),
		state:     StateWaiting,
		createdAt: r.now(),
		seq:       r.seq,
	}
	r.rooms[code] = room
	return room, nil
}

func (r *Registry) uniqueCode() (string, error) {
	for range maxCodeAttempts {
		code := r.newCode()
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// FetchByCode returns the room with the given join code.
func (r *Registry) FetchByCode(code string) (*Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// FetchByID returns the room with the given id.
func (r *Registry) FetchByID(id string) (*Room, bool) {
	for _, room := range r.rooms {
		if room.id == id {
			return room, true
		}
	}
	return nil, false
}

// RemoveByID drops the room with the given id. Callers empty the room
// first.
func (r *Registry) RemoveByID(id string) bool {
	for code, room := range r.rooms {
		if room.id == id {
			delete(r.rooms, code)
			return true
		}
	}
	return false
}

// ListJoinablePublic returns public, idle rooms with a free seat.
func (r *Registry) ListJoinablePublic() []*Room {
	var rooms []*Room
	for _, room := range r.rooms {
		if room.settings.IsPublic() && room.IsIdle() && len(room.players) < room.settings.MaxPlayers() {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// Len returns the number of active rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}
