package game

import (
	"github.com/example/trivia-rooms/events"
	"github.com/go-monolith/mono"
)

// Notifier delivers room messages and game results.
type Notifier interface {
	RoomMessage(ev events.RoomMessageEvent) error
	GameFinished(ev events.GameFinishedEvent) error
}

// busNotifier publishes to the mono event bus.
type busNotifier struct {
	bus mono.EventBus
}

func (n *busNotifier) RoomMessage(ev events.RoomMessageEvent) error {
	return events.RoomMessageV1.Publish(n.bus, ev, nil)
}

func (n *busNotifier) GameFinished(ev events.GameFinishedEvent) error {
	return events.GameFinishedV1.Publish(n.bus, ev, nil)
}
