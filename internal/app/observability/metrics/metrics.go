package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	AuthRequestsTotal   metric.Int64Counter
	FeatureChecksTotal  metric.Int64Counter
	ScrapeRunsTotal     metric.Int64Counter
	ScrapePageDuration  metric.Float64Histogram
	ImagesSavedTotal    metric.Int64Counter
	PostsGeneratedTotal metric.Int64Counter
	PaymentsTotal       metric.Int64Counter
	DBQueryErrorsTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, reading the
// Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("dealerflow")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.FeatureChecksTotal, err = meter.Int64Counter(
			"feature_checks_total",
			metric.WithDescription("Total number of feature gate evaluations"),
			metric.WithUnit("{check}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create feature_checks_total: %v", err)
		}

		m.ScrapeRunsTotal, err = meter.Int64Counter(
			"scrape_runs_total",
			metric.WithDescription("Total number of scrape orchestrator runs"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create scrape_runs_total: %v", err)
		}

		m.ScrapePageDuration, err = meter.Float64Histogram(
			"scrape_page_duration_seconds",
			metric.WithDescription("Duration of a single inventory page scrape in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create scrape_page_duration_seconds: %v", err)
		}

		m.ImagesSavedTotal, err = meter.Int64Counter(
			"images_saved_total",
			metric.WithDescription("Total number of images persisted"),
			metric.WithUnit("{image}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create images_saved_total: %v", err)
		}

		m.PostsGeneratedTotal, err = meter.Int64Counter(
			"posts_generated_total",
			metric.WithDescription("Total number of social posts generated"),
			metric.WithUnit("{post}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create posts_generated_total: %v", err)
		}

		m.PaymentsTotal, err = meter.Int64Counter(
			"payments_total",
			metric.WithDescription("Total number of payment attempts"),
			metric.WithUnit("{payment}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create payments_total: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, initializing it
// against the current global MeterProvider on first use. Outside the server
// that provider is the SDK default no-op, so instruments record nothing.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
