package worker

import (
	"fmt"

	"github.com/streamfold/fanout-bench/internal/broadcast"
	"github.com/streamfold/fanout-bench/internal/msg_tracker"
)

// Sender is the publishing side of the channel shared by all producers
type Sender interface {
	Send(id msg_tracker.MessageID) (int, error)
}

// Receiver is one consumer's subscription
type Receiver interface {
	Recv() (msg_tracker.MessageID, error)
	Unsubscribe()
}

type medium interface {
	Sender
	subscribe() Receiver
	Subscribers() int
	Close()
}

type Mode string

const (
	// ModeBroadcast delivers every message to every consumer, consumers
	// deduplicate through the consumed set
	ModeBroadcast Mode = "broadcast"
	// ModeQueue delivers every message to a single consumer
	ModeQueue Mode = "queue"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBroadcast, ModeQueue:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q (expected %q or %q)", s, ModeBroadcast, ModeQueue)
	}
}

func newMedium(mode Mode, capacity int) medium {
	if mode == ModeQueue {
		return &queueMedium{broadcast.NewQueue[msg_tracker.MessageID](capacity)}
	}
	return &broadcastMedium{broadcast.New[msg_tracker.MessageID](capacity)}
}

type broadcastMedium struct {
	*broadcast.Broadcaster[msg_tracker.MessageID]
}

func (m *broadcastMedium) subscribe() Receiver {
	return m.Subscribe()
}

type queueMedium struct {
	*broadcast.Queue[msg_tracker.MessageID]
}

func (m *queueMedium) subscribe() Receiver {
	return m.Subscribe()
}
