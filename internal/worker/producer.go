package worker

import (
	"time"

	"github.com/streamfold/fanout-bench/internal/msg_tracker"
	"github.com/streamfold/fanout-bench/internal/stats"
	"github.com/streamfold/fanout-bench/internal/util"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	MessagesCount int
	Delay         util.DelayRange
}

type Producer struct {
	id       int
	cfg      ProducerConfig
	registry *msg_tracker.Registry
	ids      *MsgIdGenerator
	jitter   *util.Jitter
	log      *zap.Logger
	sleep    func(time.Duration)

	statSent   stats.Stat
	statFailed stats.Stat
}

func NewProducer(id int, cfg ProducerConfig, registry *msg_tracker.Registry, jitter *util.Jitter, sb stats.Builder, log *zap.Logger) *Producer {
	ids := NewMsgIdGenerator()

	return &Producer{
		id:         id,
		cfg:        cfg,
		registry:   registry,
		ids:        ids,
		jitter:     jitter,
		log:        log.With(zap.Int("producer_id", id), zap.String("generator_id", ids.GeneratorID())),
		sleep:      time.Sleep,
		statSent:   sb.NewStat(stats.StatMessagesSent),
		statFailed: sb.NewStat(stats.StatSendFailures),
	}
}

// Run publishes MessagesCount messages and returns how many were sent. A
// failed send ends the loop early, it is never retried.
func (p *Producer) Run(sender Sender) int {
	sent := 0

	for i := 0; i < p.cfg.MessagesCount; i++ {
		p.sleep(p.jitter.Next(p.cfg.Delay))

		id, seq := p.ids.Next()
		p.registry.RecordStart(id, p.id)

		receivers, err := sender.Send(id)
		if err != nil {
			p.statFailed.Incr(1)
			p.log.Warn("failed to send message, stopping producer",
				zap.Error(err),
				zap.String("message_id", string(id)),
				zap.Uint64("message_num", seq),
			)
			break
		}

		sent++
		p.statSent.Incr(1)
		p.log.Info("Message sent",
			zap.String("message_id", string(id)),
			zap.Uint64("message_num", seq),
			zap.Int("receivers", receivers),
		)
	}

	p.log.Info("Producer completed", zap.Int("sent", sent))
	return sent
}
