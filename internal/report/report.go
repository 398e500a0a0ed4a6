package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/streamfold/fanout-bench/internal/msg_tracker"
	"github.com/streamfold/fanout-bench/internal/telemetry"
	"go.uber.org/zap"
)

type Format string

const (
	FormatLog      Format = "log"
	FormatText     Format = "text"
	FormatOTLPJSON Format = "otlp-json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatLog, FormatText, FormatOTLPJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected one of %q, %q, %q)", s, FormatLog, FormatText, FormatOTLPJSON)
	}
}

// Latency is a finalized message with its emit-to-first-consumption time
type Latency struct {
	ID         msg_tracker.MessageID
	ProducerID int
	ConsumerID int
	Start      time.Time
	End        time.Time
	Duration   time.Duration
}

func (l Latency) Millis() int64 {
	return l.Duration.Milliseconds()
}

// Latencies returns the finalized records of snapshot ordered by start time,
// then by ID. Open records are left out.
func Latencies(snapshot map[msg_tracker.MessageID]msg_tracker.TimingRecord) []Latency {
	out := make([]Latency, 0, len(snapshot))
	for id, tr := range snapshot {
		if !tr.Finalized() {
			continue
		}
		out = append(out, Latency{
			ID:         id,
			ProducerID: tr.ProducerID,
			ConsumerID: tr.ConsumerID,
			Start:      tr.Start,
			End:        tr.End,
			Duration:   tr.Latency(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

type Summary struct {
	Published int
	Completed int

	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
}

func Summarize(snapshot map[msg_tracker.MessageID]msg_tracker.TimingRecord) Summary {
	s := Summary{Published: len(snapshot)}

	durations := make([]time.Duration, 0, len(snapshot))
	for _, tr := range snapshot {
		if tr.Finalized() {
			durations = append(durations, tr.Latency())
		}
	}
	s.Completed = len(durations)
	if s.Completed == 0 {
		return s
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	s.Min = durations[0]
	s.Max = durations[len(durations)-1]
	s.Mean = total / time.Duration(len(durations))
	s.P50 = percentile(durations, 50)
	s.P95 = percentile(durations, 95)
	s.P99 = percentile(durations, 99)

	return s
}

// nearest-rank percentile over sorted values
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Reporter renders a finished registry snapshot. It only reads the snapshot,
// so reporting the same snapshot twice gives the same output.
type Reporter struct {
	format   Format
	out      io.Writer
	log      *zap.Logger
	hostname string
}

func New(format Format, out io.Writer, log *zap.Logger) *Reporter {
	return &Reporter{
		format: format,
		out:    out,
		log:    log,
	}
}

// WithHostname pins the host name written into OTLP resources
func (r *Reporter) WithHostname(hostname string) *Reporter {
	r.hostname = hostname
	return r
}

func (r *Reporter) Report(snapshot map[msg_tracker.MessageID]msg_tracker.TimingRecord) error {
	latencies := Latencies(snapshot)
	summary := Summarize(snapshot)

	switch r.format {
	case FormatLog:
		r.reportLog(latencies, summary)
		return nil
	case FormatText:
		return r.reportText(latencies, summary)
	case FormatOTLPJSON:
		return r.reportOTLP(latencies)
	default:
		return fmt.Errorf("unknown report format %q", r.format)
	}
}

func (r *Reporter) reportLog(latencies []Latency, summary Summary) {
	r.log.Info("################ printing produce and consume delays ################")
	for _, l := range latencies {
		r.log.Info("Message processing time",
			zap.String("message_id", string(l.ID)),
			zap.Int64("duration_ms", l.Millis()),
			zap.Int("producer_id", l.ProducerID),
			zap.Int("consumer_id", l.ConsumerID),
		)
	}
	r.log.Info("Message latency summary",
		zap.Int("published", summary.Published),
		zap.Int("completed", summary.Completed),
		zap.Int64("min_ms", summary.Min.Milliseconds()),
		zap.Int64("mean_ms", summary.Mean.Milliseconds()),
		zap.Int64("p50_ms", summary.P50.Milliseconds()),
		zap.Int64("p95_ms", summary.P95.Milliseconds()),
		zap.Int64("p99_ms", summary.P99.Milliseconds()),
		zap.Int64("max_ms", summary.Max.Milliseconds()),
	)
	r.log.Info("################ printing done ################")
}

func (r *Reporter) reportText(latencies []Latency, summary Summary) error {
	for _, l := range latencies {
		if _, err := fmt.Fprintf(r.out, "Message %s took %d ms\n", l.ID, l.Millis()); err != nil {
			return fmt.Errorf("failed to write latency: %w", err)
		}
	}

	_, err := fmt.Fprintf(r.out, "Completed %d/%d messages, latency min=%dms mean=%dms p50=%dms p95=%dms p99=%dms max=%dms\n",
		summary.Completed, summary.Published,
		summary.Min.Milliseconds(), summary.Mean.Milliseconds(),
		summary.P50.Milliseconds(), summary.P95.Milliseconds(), summary.P99.Milliseconds(),
		summary.Max.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func (r *Reporter) reportOTLP(latencies []Latency) error {
	spans := make([]telemetry.MessageSpan, 0, len(latencies))
	for _, l := range latencies {
		spans = append(spans, telemetry.MessageSpan{
			MessageID:  string(l.ID),
			ProducerID: l.ProducerID,
			ConsumerID: l.ConsumerID,
			StartNanos: l.Start.UnixNano(),
			EndNanos:   l.End.UnixNano(),
		})
	}

	buf, err := telemetry.MarshalJSON(telemetry.BuildTraces(r.hostname, spans))
	if err != nil {
		return fmt.Errorf("failed to marshal traces: %w", err)
	}

	if _, err := r.out.Write(append(buf, '\n')); err != nil {
		return fmt.Errorf("failed to write traces: %w", err)
	}
	return nil
}
