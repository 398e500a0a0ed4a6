package worker

import (
	"errors"
	"time"

	"github.com/streamfold/fanout-bench/internal/broadcast"
	"github.com/streamfold/fanout-bench/internal/msg_tracker"
	"github.com/streamfold/fanout-bench/internal/stats"
	"github.com/streamfold/fanout-bench/internal/util"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Delay util.DelayRange
}

type Consumer struct {
	id       int
	cfg      ConsumerConfig
	consumed *msg_tracker.ConsumedSet
	registry *msg_tracker.Registry
	jitter   *util.Jitter
	log      *zap.Logger
	sleep    func(time.Duration)

	statClaimed stats.Stat
	statSkipped stats.Stat
	statLagged  stats.Stat
}

func NewConsumer(id int, cfg ConsumerConfig, consumed *msg_tracker.ConsumedSet, registry *msg_tracker.Registry, jitter *util.Jitter, sb stats.Builder, log *zap.Logger) *Consumer {
	return &Consumer{
		id:          id,
		cfg:         cfg,
		consumed:    consumed,
		registry:    registry,
		jitter:      jitter,
		log:         log.With(zap.Int("consumer_id", id)),
		sleep:       time.Sleep,
		statClaimed: sb.NewStat(stats.StatMessagesClaimed),
		statSkipped: sb.NewStat(stats.StatMessagesSkipped),
		statLagged:  sb.NewStat(stats.StatMessagesLagged),
	}
}

// Run receives until the channel is closed and drained, and returns how many
// messages this consumer claimed.
func (c *Consumer) Run(rx Receiver) int {
	claimed := 0

	for {
		id, err := rx.Recv()
		if err != nil {
			var lagged *broadcast.LaggedError
			if errors.As(err, &lagged) {
				c.statLagged.Incr(lagged.Skipped)
				c.log.Warn("consumer lagged behind, messages were dropped", zap.Uint64("skipped", lagged.Skipped))
				continue
			}

			if !errors.Is(err, broadcast.ErrClosed) {
				c.log.Error("unexpected receive error, stopping consumer", zap.Error(err))
			}
			break
		}

		if !c.process(id) {
			continue
		}
		claimed++
	}

	c.log.Info("Consumer completed", zap.Int("claimed", claimed))
	return claimed
}

func (c *Consumer) process(id msg_tracker.MessageID) bool {
	res := c.consumed.Claim(id, c.id)
	if res.Dup {
		c.statSkipped.Incr(1)
		c.log.Debug("message already claimed",
			zap.String("message_id", string(id)),
			zap.Int("owner", res.Owner),
		)
		return false
	}

	c.log.Info("Message received", zap.String("message_id", string(id)))
	if !c.registry.RecordEnd(id, c.id) {
		c.log.Debug("no open timing record for message", zap.String("message_id", string(id)))
	}
	c.statClaimed.Incr(1)

	c.sleep(c.jitter.Next(c.cfg.Delay))
	return true
}
