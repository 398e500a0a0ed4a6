package worker

import (
	"testing"
	"time"

	"github.com/streamfold/fanout-bench/internal/broadcast"
	"github.com/streamfold/fanout-bench/internal/msg_tracker"
	"github.com/streamfold/fanout-bench/internal/stats"
	"github.com/streamfold/fanout-bench/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	registry *msg_tracker.Registry
	failAt   int
	sent     []msg_tracker.MessageID
	started  []bool
}

func (f *fakeSender) Send(id msg_tracker.MessageID) (int, error) {
	_, ok := f.registry.Get(id)
	f.started = append(f.started, ok)

	if f.failAt > 0 && len(f.started) == f.failAt {
		return 0, broadcast.ErrNoSubscribers
	}
	f.sent = append(f.sent, id)
	return 1, nil
}

func newTestProducer(t *testing.T, count int, registry *msg_tracker.Registry, tracker stats.Tracker) (*Producer, *[]time.Duration) {
	delays := make([]time.Duration, 0)
	p := NewProducer(1, ProducerConfig{
		MessagesCount: count,
		Delay:         util.DelayRange{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond},
	}, registry, util.NewJitter(7, 1), tracker.NewDomain(domainProducers), zaptest.NewLogger(t))
	p.sleep = func(d time.Duration) { delays = append(delays, d) }

	return p, &delays
}

func TestProducer_SendsAllMessages(t *testing.T) {
	registry := msg_tracker.NewRegistry()
	tracker := stats.NewStatTracker()
	p, delays := newTestProducer(t, 5, registry, tracker)
	sender := &fakeSender{registry: registry}

	sent := p.Run(sender)

	assert.Equal(t, 5, sent)
	require.Len(t, sender.sent, 5)
	assert.Equal(t, 5, registry.Len())

	unique := make(map[msg_tracker.MessageID]struct{})
	for _, id := range sender.sent {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, 5)

	// start is recorded before the message is published
	for _, started := range sender.started {
		assert.True(t, started)
	}

	require.Len(t, *delays, 5)
	for _, d := range *delays {
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 500*time.Millisecond)
	}

	assert.Equal(t, uint64(5), tracker.Totals()[domainProducers][stats.StatMessagesSent])
	assert.Equal(t, uint64(5), p.ids.Issued())
}

func TestProducer_StopsOnSendFailure(t *testing.T) {
	registry := msg_tracker.NewRegistry()
	tracker := stats.NewStatTracker()
	p, _ := newTestProducer(t, 5, registry, tracker)
	sender := &fakeSender{registry: registry, failAt: 3}

	sent := p.Run(sender)

	assert.Equal(t, 2, sent)
	assert.Len(t, sender.started, 3)
	// the failed message keeps its open start record
	assert.Equal(t, 3, registry.Len())
	assert.Equal(t, 0, registry.FinalizedCount())

	totals := tracker.Totals()[domainProducers]
	assert.Equal(t, uint64(2), totals[stats.StatMessagesSent])
	assert.Equal(t, uint64(1), totals[stats.StatSendFailures])
}

func TestProducer_ZeroMessages(t *testing.T) {
	registry := msg_tracker.NewRegistry()
	p, delays := newTestProducer(t, 0, registry, stats.NewStatTracker())

	assert.Equal(t, 0, p.Run(&fakeSender{registry: registry}))
	assert.Empty(t, *delays)
	assert.Equal(t, 0, registry.Len())
}
