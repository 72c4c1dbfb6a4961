package tracing

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitTracer(t *testing.T) {
	log := zap.NewNop().Sugar()

	t.Run("requires a service name", func(t *testing.T) {
		if _, err := InitTracer(context.Background(), Config{}, log); err == nil {
			t.Error("expected error for empty service name")
		}
	})

	t.Run("rejects unknown exporters", func(t *testing.T) {
		_, err := InitTracer(context.Background(), Config{ServiceName: "test", Exporter: "zipkin"}, log)
		if err == nil || !strings.Contains(err.Error(), "zipkin") {
			t.Errorf("expected unsupported exporter error, got %v", err)
		}
	})

	t.Run("none exporter", func(t *testing.T) {
		shutdown, err := InitTracer(context.Background(), Config{ServiceName: "test", Exporter: ExporterNone}, log)
		if err != nil {
			t.Fatalf("InitTracer failed: %v", err)
		}
		defer shutdown(context.Background())

		_, span := StartSpan(context.Background(), "dispatch")
		if !span.SpanContext().IsValid() {
			t.Error("expected a recording provider to hand out valid span contexts")
		}
		span.End()
	})
}

func TestParseSampler(t *testing.T) {
	log := zap.NewNop().Sugar()
	tests := []struct {
		name, arg string
		want      string
	}{
		{"", "", "ParentBased{root:AlwaysOnSampler"},
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"bogus", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSampler(tt.name, tt.arg, log).Description()
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in sampler description, got %q", tt.want, got)
			}
		})
	}
}
