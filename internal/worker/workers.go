package worker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/streamfold/fanout-bench/internal/msg_tracker"
	"github.com/streamfold/fanout-bench/internal/stats"
	"github.com/streamfold/fanout-bench/internal/util"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	domainProducers = "producers"
	domainConsumers = "consumers"
)

var ErrAlreadyRan = errors.New("workers have already been run")

// Reporter receives the final registry snapshot once every unit has finished
type Reporter interface {
	Report(snapshot map[msg_tracker.MessageID]msg_tracker.TimingRecord) error
}

type Config struct {
	NumProducers        int
	NumConsumers        int
	MessagesPerProducer int
	ChannelCapacity     int
	Mode                Mode
	ProducerDelay       util.DelayRange
	ConsumerDelay       util.DelayRange
	ReportInterval      time.Duration
	Seed                uint64
}

func DefaultConfig() Config {
	return Config{
		NumProducers:        10,
		NumConsumers:        5,
		MessagesPerProducer: 5,
		ChannelCapacity:     100,
		Mode:                ModeBroadcast,
		ProducerDelay:       util.DelayRange{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond},
		ConsumerDelay:       util.DelayRange{Min: 200 * time.Millisecond, Max: 600 * time.Millisecond},
		ReportInterval:      5 * time.Second,
	}
}

// Validate returns every configuration problem at once
func (c Config) Validate() error {
	var err error

	if c.NumProducers < 0 {
		err = multierr.Append(err, fmt.Errorf("producers must be >= 0, got %d", c.NumProducers))
	}
	if c.NumConsumers < 0 {
		err = multierr.Append(err, fmt.Errorf("consumers must be >= 0, got %d", c.NumConsumers))
	}
	if c.MessagesPerProducer < 0 {
		err = multierr.Append(err, fmt.Errorf("messages must be >= 0, got %d", c.MessagesPerProducer))
	}
	if c.ChannelCapacity < 1 {
		err = multierr.Append(err, fmt.Errorf("channel capacity must be > 0, got %d", c.ChannelCapacity))
	}
	if _, modeErr := ParseMode(string(c.Mode)); modeErr != nil {
		err = multierr.Append(err, modeErr)
	}
	if !c.ProducerDelay.Valid() {
		err = multierr.Append(err, fmt.Errorf("invalid producer delay range [%s, %s)", c.ProducerDelay.Min, c.ProducerDelay.Max))
	}
	if !c.ConsumerDelay.Valid() {
		err = multierr.Append(err, fmt.Errorf("invalid consumer delay range [%s, %s)", c.ConsumerDelay.Min, c.ConsumerDelay.Max))
	}
	if c.ReportInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("report interval must be >= 0, got %s", c.ReportInterval))
	}

	return err
}

// Result holds the totals of a finished run
type Result struct {
	Published    uint64
	SendFailures uint64
	Claimed      uint64
	Skipped      uint64
	Lagged       uint64

	// Recorded counts timing records, Finalized those with an end time
	Recorded  int
	Finalized int

	Elapsed time.Duration
}

// Workers coordinates one run of producers and consumers over a shared channel
type Workers struct {
	cfg      Config
	log      *zap.Logger
	stats    stats.Tracker
	registry *msg_tracker.Registry
	consumed *msg_tracker.ConsumedSet
	ran      atomic.Bool

	activeProducers atomic.Int32
	activeConsumers atomic.Int32

	statsStop chan bool
	statsWg   *sync.WaitGroup
}

func New(cfg Config, log *zap.Logger) (*Workers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Workers{
		cfg:      cfg,
		log:      log,
		stats:    stats.NewStatTracker(),
		registry: msg_tracker.NewRegistry(),
		consumed: msg_tracker.NewConsumedSet(),
	}, nil
}

func (w *Workers) Registry() *msg_tracker.Registry {
	return w.registry
}

func (w *Workers) Consumed() *msg_tracker.ConsumedSet {
	return w.consumed
}

// Run executes the whole protocol: start consumers and producers, wait for
// every producer, close the channel, wait for every consumer, then hand the
// registry snapshot to reporter. A nil reporter skips reporting.
func (w *Workers) Run(reporter Reporter) (Result, error) {
	if !w.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRan
	}

	started := time.Now()
	ch := newMedium(w.cfg.Mode, w.cfg.ChannelCapacity)

	w.log.Info("Starting run",
		zap.Int("producers", w.cfg.NumProducers),
		zap.Int("consumers", w.cfg.NumConsumers),
		zap.Int("messages_per_producer", w.cfg.MessagesPerProducer),
		zap.String("mode", string(w.cfg.Mode)),
		zap.Int("capacity", w.cfg.ChannelCapacity),
	)

	// subscribe everyone before the first send, late subscribers miss messages
	consumerSb := w.stats.NewDomain(domainConsumers)
	consumersWg := &sync.WaitGroup{}
	for c := 1; c <= w.cfg.NumConsumers; c++ {
		rx := ch.subscribe()
		consumer := NewConsumer(c, ConsumerConfig{Delay: w.cfg.ConsumerDelay},
			w.consumed, w.registry, util.NewJitter(w.cfg.Seed, consumerStream(c)), consumerSb, w.log)

		w.activeConsumers.Add(1)
		consumersWg.Add(1)
		go func() {
			defer func() {
				rx.Unsubscribe()
				w.activeConsumers.Add(-1)
				consumersWg.Done()
			}()

			consumer.Run(rx)
		}()
	}

	producerSb := w.stats.NewDomain(domainProducers)
	producersWg := &sync.WaitGroup{}
	for p := 1; p <= w.cfg.NumProducers; p++ {
		producer := NewProducer(p, ProducerConfig{
			MessagesCount: w.cfg.MessagesPerProducer,
			Delay:         w.cfg.ProducerDelay,
		}, w.registry, util.NewJitter(w.cfg.Seed, producerStream(p)), producerSb, w.log)

		w.activeProducers.Add(1)
		producersWg.Add(1)
		go func() {
			defer func() {
				w.activeProducers.Add(-1)
				producersWg.Done()
			}()

			producer.Run(ch)
		}()
	}

	w.startStats()

	producersWg.Wait()
	w.log.Info("All producers have completed, closing channel")
	ch.Close()

	consumersWg.Wait()
	w.log.Info("All producers and consumers have completed",
		zap.Int("messages_consumed", w.consumed.Len()),
	)

	w.stopStats()

	snapshot := w.registry.Snapshot()
	if reporter != nil {
		if err := reporter.Report(snapshot); err != nil {
			w.log.Error("failed to report message latencies", zap.Error(err))
		}
	}

	return w.result(snapshot, time.Since(started)), nil
}

func (w *Workers) result(snapshot map[msg_tracker.MessageID]msg_tracker.TimingRecord, elapsed time.Duration) Result {
	totals := w.stats.Totals()
	res := Result{
		Published:    totals[domainProducers][stats.StatMessagesSent],
		SendFailures: totals[domainProducers][stats.StatSendFailures],
		Claimed:      totals[domainConsumers][stats.StatMessagesClaimed],
		Skipped:      totals[domainConsumers][stats.StatMessagesSkipped],
		Lagged:       totals[domainConsumers][stats.StatMessagesLagged],
		Recorded:     len(snapshot),
		Elapsed:      elapsed,
	}
	for _, tr := range snapshot {
		if tr.Finalized() {
			res.Finalized++
		}
	}

	return res
}

func (w *Workers) startStats() {
	if w.cfg.ReportInterval <= 0 {
		return
	}

	w.statsStop = make(chan bool)
	ticker := time.NewTicker(w.cfg.ReportInterval)
	// prime the rates
	w.stats.Report(time.Now())

	w.statsWg = &sync.WaitGroup{}
	w.statsWg.Add(1)
	go func() {
		defer func() {
			ticker.Stop()
			w.statsWg.Done()
		}()

		w.printStats(ticker)
	}()
}

func (w *Workers) stopStats() {
	if w.statsStop == nil {
		return
	}

	close(w.statsStop)
	w.statsWg.Wait()
}

func (w *Workers) printStats(ticker *time.Ticker) {
	for {
		select {
		case <-w.statsStop:
			return

		case <-ticker.C:
			reports := w.stats.Report(time.Now())

			domains := make([]string, 0, len(reports))
			for domain := range reports {
				domains = append(domains, domain)
			}
			sort.Strings(domains)

			for _, domain := range domains {
				reportOuts := make([]string, 0)
				for _, r := range reports[domain] {
					reportOuts = append(reportOuts, r.Report())
				}
				if len(reportOuts) > 0 {
					w.log.Info("REPORT",
						zap.String("domain", domain),
						zap.String("stats", strings.Join(reportOuts, ", ")),
						zap.Int32("active_producers", w.activeProducers.Load()),
						zap.Int32("active_consumers", w.activeConsumers.Load()),
					)
				}
			}
		}
	}
}

func producerStream(id int) uint64 {
	return uint64(id)
}

func consumerStream(id int) uint64 {
	return 1<<32 | uint64(id)
}
