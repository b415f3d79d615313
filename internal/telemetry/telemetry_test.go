package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSampleRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 1},
		{"abc", 1},
		{"0.25", 0.25},
		{"0", 0},
		{"-3", 0},
		{"7", 1},
	}
	for _, tt := range tests {
		if got := sampleRatio(tt.in); got != tt.want {
			t.Errorf("sampleRatio(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFailMarksSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "stage.rivers")
	Fail(span, errors.New("tiles are not adjacent"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(ended))
	}
	status := ended[0].Status()
	if status.Code != codes.Error || status.Description != "tiles are not adjacent" {
		t.Errorf("status = %+v", status)
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("events = %d, want the recorded error", len(ended[0].Events()))
	}
}
