package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

type Stat interface {
	Incr(delta uint64)
	Value() uint64
}

type stat struct {
	statType StatType

	value atomic.Uint64

	lastReportMut   sync.Mutex
	lastReportValue uint64
	lastReportTime  time.Time
}

func (s *stat) Incr(delta uint64) {
	s.value.Add(delta)
}

func (s *stat) Value() uint64 {
	return s.value.Load()
}

type StatType int

const (
	StatMessagesSent StatType = iota
	StatSendFailures
	StatMessagesClaimed
	StatMessagesSkipped
	StatMessagesLagged
)

func (s StatType) String() string {
	switch s {
	case StatMessagesSent:
		return "messages_sent"
	case StatSendFailures:
		return "send_failures"
	case StatMessagesClaimed:
		return "messages_claimed"
	case StatMessagesSkipped:
		return "messages_skipped"
	case StatMessagesLagged:
		return "messages_lagged"
	default:
		return "unknown"
	}
}

func (s StatType) desc() string {
	switch s {
	case StatMessagesSent:
		return "sent"
	case StatSendFailures:
		return "failed"
	case StatMessagesClaimed:
		return "claimed"
	case StatMessagesSkipped:
		return "skipped"
	case StatMessagesLagged:
		return "lagged"
	default:
		return ""
	}
}

func (s StatType) unit() string {
	switch s {
	case StatSendFailures:
		return "sends"
	case StatMessagesSent, StatMessagesClaimed, StatMessagesSkipped, StatMessagesLagged:
		return "msgs"
	default:
		return ""
	}
}
