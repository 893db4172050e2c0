package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newBufferLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return slog.New(&traceHandler{baseHandler: base})
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}
	return record
}

func TestTraceHandler(t *testing.T) {
	t.Run("injects trace and span ids when a span is active", func(t *testing.T) {
		exp := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		otel.SetTracerProvider(tp)
		t.Cleanup(func() { otel.SetTracerProvider(nil) })

		ctx, span := StartSpan(context.Background(), "test-operation")
		defer span.End()

		var buf bytes.Buffer
		logger := newBufferLogger(&buf, slog.LevelInfo)
		logger.InfoContext(ctx, "order created", "order_id", 42)

		record := logLine(t, &buf)
		if record["trace_id"] != TraceID(ctx) {
			t.Errorf("expected trace_id %s, got %v", TraceID(ctx), record["trace_id"])
		}
		if record["span_id"] != SpanID(ctx) {
			t.Errorf("expected span_id %s, got %v", SpanID(ctx), record["span_id"])
		}
		if record["order_id"] != float64(42) {
			t.Errorf("expected order_id 42, got %v", record["order_id"])
		}
	})

	t.Run("omits trace fields without a span", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf, slog.LevelInfo)
		logger.InfoContext(context.Background(), "order created")

		record := logLine(t, &buf)
		if _, ok := record["trace_id"]; ok {
			t.Error("expected no trace_id field")
		}
		if _, ok := record["span_id"]; ok {
			t.Error("expected no span_id field")
		}
	})

	t.Run("honors the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf, slog.LevelWarn)
		logger.InfoContext(context.Background(), "too quiet")

		if buf.Len() != 0 {
			t.Errorf("expected debug output suppressed, got %q", buf.String())
		}
	})

	t.Run("carries WithAttrs attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf, slog.LevelInfo).With("component", "orders")
		logger.InfoContext(context.Background(), "order created")

		record := logLine(t, &buf)
		if record["component"] != "orders" {
			t.Errorf("expected component orders, got %v", record["component"])
		}
	})

	t.Run("carries WithGroup groups", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf, slog.LevelInfo).WithGroup("order")
		logger.InfoContext(context.Background(), "created", "id", 7)

		record := logLine(t, &buf)
		group, ok := record["order"].(map[string]any)
		if !ok {
			t.Fatalf("expected order group, got %v", record)
		}
		if group["id"] != float64(7) {
			t.Errorf("expected grouped id 7, got %v", group["id"])
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.input); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tc.input, got, tc.want)
		}
	}
}
