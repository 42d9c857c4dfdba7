/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{2.5, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{-1, sdktrace.NeverSample().Description()},
		{0.25, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestToAttributesSkipsUnsupported(t *testing.T) {
	attrs := toAttributes(map[string]any{
		"source":   "data.json",
		"slides":   3,
		"ok":       true,
		"interval": 1500 * time.Millisecond,
		"ignored":  struct{}{},
	})
	if len(attrs) != 4 {
		t.Fatalf("attributes = %d, want 4", len(attrs))
	}
	for _, kv := range attrs {
		if string(kv.Key) == "interval_ms" && kv.Value.AsInt64() != 1500 {
			t.Fatalf("interval_ms = %d, want 1500", kv.Value.AsInt64())
		}
	}
}

func TestDisabledTracerIsNoop(t *testing.T) {
	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	_, span := StartSpan(context.Background(), "schedule", "Refresh")
	if span.SpanContext().IsValid() {
		t.Fatal("disabled tracing should produce invalid span contexts")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
