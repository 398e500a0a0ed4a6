package telemetry

import (
	"github.com/streamfold/fanout-bench/internal/otlp"
	"github.com/streamfold/fanout-bench/internal/util"

	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	otlpCommon "go.opentelemetry.io/proto/otlp/common/v1"
	otlpTraces "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	spanName = "message_latency"

	AttrProducerID = "fanout.producer.id"
	AttrConsumerID = "fanout.consumer.id"
	AttrLatencyMs  = "fanout.latency_ms"
)

// MessageSpan is one finalized message, from publish to first consumption
type MessageSpan struct {
	MessageID  string
	ProducerID int
	ConsumerID int
	StartNanos int64
	EndNanos   int64
}

// BuildTraces turns message spans into a single OTLP resource. Every message
// gets its own trace. IDs come from a fixed seed so equal input gives equal
// output.
func BuildTraces(hostname string, spans []MessageSpan) *otlpTraces.TracesData {
	ids := util.NewByteGen()

	ss := &otlpTraces.ScopeSpans{
		Scope:     otlp.NewScope(),
		Spans:     make([]*otlpTraces.Span, 0, len(spans)),
		SchemaUrl: semconv.SchemaURL,
	}

	for _, ms := range spans {
		latencyMs := (ms.EndNanos - ms.StartNanos) / 1_000_000

		ss.Spans = append(ss.Spans, &otlpTraces.Span{
			TraceId:           ids.OtelId(16),
			SpanId:            ids.OtelId(8),
			Name:              spanName,
			Kind:              otlpTraces.Span_SPAN_KIND_CONSUMER,
			StartTimeUnixNano: uint64(ms.StartNanos),
			EndTimeUnixNano:   uint64(ms.EndNanos),
			Attributes: []*otlpCommon.KeyValue{
				otlp.StringAttr(string(semconv.MessagingMessageIDKey), ms.MessageID),
				otlp.IntAttr(AttrProducerID, int64(ms.ProducerID)),
				otlp.IntAttr(AttrConsumerID, int64(ms.ConsumerID)),
				otlp.IntAttr(AttrLatencyMs, latencyMs),
			},
			Status: &otlpTraces.Status{Code: otlpTraces.Status_STATUS_CODE_OK},
		})
	}

	return &otlpTraces.TracesData{
		ResourceSpans: []*otlpTraces.ResourceSpans{
			{
				Resource:   otlp.NewResource(hostname),
				ScopeSpans: []*otlpTraces.ScopeSpans{ss},
				SchemaUrl:  semconv.SchemaURL,
			},
		},
	}
}

// MarshalJSON renders traces with protojson, the way the OTLP HTTP exporter does
func MarshalJSON(td *otlpTraces.TracesData) ([]byte, error) {
	return protojson.Marshal(td)
}
