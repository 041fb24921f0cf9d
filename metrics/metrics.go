// Package metrics wires the OpenTelemetry metric SDK to a Prometheus
// exporter, exposing the counters the Resolver, Scheduler and Fetcher
// update as they run.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func New() (m Metrics, err error) {
	exporter, err := prometheus.New()
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("github.com/debcore/debcore")

	if m.ResolverIterationsTotal, err = meter.Int64Counter("resolver_iterations_total", metric.WithDescription("Total number of best-first search iterations performed")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create resolver_iterations_total counter: %w", err)
	}
	if m.ResolverSolutionPoolSize, err = meter.Int64UpDownCounter("resolver_solution_pool_size", metric.WithDescription("Current number of candidate solutions held in the resolver's pool")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create resolver_solution_pool_size gauge: %w", err)
	}
	if m.SchedulerActionGroupsTotal, err = meter.Int64Counter("scheduler_action_groups_total", metric.WithDescription("Total number of dpkg action groups produced")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create scheduler_action_groups_total counter: %w", err)
	}
	if m.FetchBytesTotal, err = meter.Int64Counter("fetch_bytes_total", metric.WithDescription("Total bytes fetched from repositories")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create fetch_bytes_total counter: %w", err)
	}
	if m.FetchFilesTotal, err = meter.Int64Counter("fetch_files_total", metric.WithDescription("Total files successfully fetched from repositories")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create fetch_files_total counter: %w", err)
	}
	if m.FetchFailuresTotal, err = meter.Int64Counter("fetch_failures_total", metric.WithDescription("Total fetch attempts that exhausted every transport method")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create fetch_failures_total counter: %w", err)
	}
	if m.ActivePerformers, err = meter.Int64UpDownCounter("fetch_active_performers", metric.WithDescription("Currently running download performer goroutines")); err != nil {
		return Metrics{}, fmt.Errorf("failed to create fetch_active_performers gauge: %w", err)
	}

	return m, nil
}

type Metrics struct {
	ResolverIterationsTotal    metric.Int64Counter
	ResolverSolutionPoolSize   metric.Int64UpDownCounter
	SchedulerActionGroupsTotal metric.Int64Counter
	FetchBytesTotal            metric.Int64Counter
	FetchFilesTotal            metric.Int64Counter
	FetchFailuresTotal         metric.Int64Counter
	ActivePerformers           metric.Int64UpDownCounter
}

func ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())
	return http.ListenAndServe(addr, mux)
}

func (m Metrics) IncrementResolverIterations(ctx context.Context, n int64) {
	if m.ResolverIterationsTotal == nil {
		return
	}
	m.ResolverIterationsTotal.Add(ctx, n)
}

func (m Metrics) SetSolutionPoolSize(ctx context.Context, delta int64) {
	if m.ResolverSolutionPoolSize == nil {
		return
	}
	m.ResolverSolutionPoolSize.Add(ctx, delta)
}

func (m Metrics) IncrementActionGroups(ctx context.Context, n int64) {
	if m.SchedulerActionGroupsTotal == nil {
		return
	}
	m.SchedulerActionGroupsTotal.Add(ctx, n)
}

func (m Metrics) IncrementFetch(ctx context.Context, scheme string, bytes int64) {
	if m.FetchBytesTotal == nil || m.FetchFilesTotal == nil {
		return
	}
	m.FetchFilesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("scheme", scheme)))
	m.FetchBytesTotal.Add(ctx, bytes, metric.WithAttributes(attribute.String("scheme", scheme)))
}

func (m Metrics) IncrementFetchFailure(ctx context.Context, scheme string) {
	if m.FetchFailuresTotal == nil {
		return
	}
	m.FetchFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("scheme", scheme)))
}

func (m Metrics) PerformerStarted(ctx context.Context) {
	if m.ActivePerformers == nil {
		return
	}
	m.ActivePerformers.Add(ctx, 1)
}

func (m Metrics) PerformerFinished(ctx context.Context) {
	if m.ActivePerformers == nil {
		return
	}
	m.ActivePerformers.Add(ctx, -1)
}
