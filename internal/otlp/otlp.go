package otlp

import (
	"os"

	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	otlpCommon "go.opentelemetry.io/proto/otlp/common/v1"
	otlpRes "go.opentelemetry.io/proto/otlp/resource/v1"
)

const (
	ServiceName  = "fanout-bench"
	ScopeName    = "fanout_bench/report"
	ScopeVersion = "0.1.0"
)

func StringAttr(key string, value string) *otlpCommon.KeyValue {
	return &otlpCommon.KeyValue{
		Key:   key,
		Value: &otlpCommon.AnyValue{Value: &otlpCommon.AnyValue_StringValue{StringValue: value}},
	}
}

func IntAttr(key string, value int64) *otlpCommon.KeyValue {
	return &otlpCommon.KeyValue{
		Key:   key,
		Value: &otlpCommon.AnyValue{Value: &otlpCommon.AnyValue_IntValue{IntValue: value}},
	}
}

// NewResource describes the process that ran the producers and consumers.
// hostname is looked up when empty.
func NewResource(hostname string) *otlpRes.Resource {
	if hostname == "" {
		var err error
		hostname, err = os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
	}

	return &otlpRes.Resource{
		Attributes: []*otlpCommon.KeyValue{
			StringAttr(string(semconv.ServiceNameKey), ServiceName),
			StringAttr(string(semconv.HostNameKey), hostname),
		},
	}
}

func NewScope() *otlpCommon.InstrumentationScope {
	return &otlpCommon.InstrumentationScope{
		Name:    ScopeName,
		Version: ScopeVersion,
		Attributes: []*otlpCommon.KeyValue{
			StringAttr(string(semconv.TelemetrySDKNameKey), "go"),
		},
	}
}
