package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes settlement instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	runs             metric.Int64Counter
	items            metric.Int64Counter
	unmatchedItems   metric.Int64Counter
	remittances      metric.Int64Counter
	transitionErrors metric.Int64Counter
	runDuration      metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the settlement instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "settlement"
	}
	meter := provider.Meter(name)

	runs, err := meter.Int64Counter("settlement_runs_total")
	if err != nil {
		return nil, err
	}
	items, err := meter.Int64Counter("settlement_items_total")
	if err != nil {
		return nil, err
	}
	unmatched, err := meter.Int64Counter("settlement_unmatched_items_total")
	if err != nil {
		return nil, err
	}
	remittances, err := meter.Int64Counter("remittances_total")
	if err != nil {
		return nil, err
	}
	transitionErrors, err := meter.Int64Counter("settlement_transition_errors_total")
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("settlement_run_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runs:             runs,
		items:            items,
		unmatchedItems:   unmatched,
		remittances:      remittances,
		transitionErrors: transitionErrors,
		runDuration:      runDuration,
	}, nil
}

// RecordRun counts a finished engine or automation run.
func (m *Metrics) RecordRun(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("run_kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordItems adds computed settlement items for a party type.
func (m *Metrics) RecordItems(ctx context.Context, partyType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("party_type", strings.TrimSpace(partyType)))
	m.items.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordUnmatched adds order lines skipped because no rule applied.
func (m *Metrics) RecordUnmatched(ctx context.Context, partyType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("party_type", strings.TrimSpace(partyType)))
	m.unmatchedItems.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordRemittance counts a cascaded remittance by hop.
func (m *Metrics) RecordRemittance(ctx context.Context, fromType, toType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_type", strings.TrimSpace(fromType)),
		attribute.String("to_type", strings.TrimSpace(toType)),
	)
	m.remittances.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransitionError counts rejected status transitions.
func (m *Metrics) RecordTransitionError(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.transitionErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"run_kind":    {},
	"outcome":     {},
	"party_type":  {},
	"from_type":   {},
	"to_type":     {},
	"from_status": {},
	"to_status":   {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
