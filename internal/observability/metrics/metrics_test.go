package metrics

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("party_type", "seller"),
		attribute.String("party_id", "42"),
		attribute.String("outcome", "success"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "party_id" {
			t.Fatalf("expected party_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRun(context.Background(), "engine", "success", time.Second)
	m.RecordItems(context.Background(), "seller", 3)
	m.RecordRemittance(context.Background(), "branch", "division")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordRun(context.Background(), "automation", "success", time.Millisecond)
	m.RecordTransitionError(context.Background(), "pending", "completed")
}
