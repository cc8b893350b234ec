package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrStatus       = "status"
	attrStatusClass  = "status_class"
	attrOperation    = "operation"
	attrResourceType = "resource_type"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Kubernetes request metrics
	k8sRequestsTotal   metric.Int64Counter
	k8sRequestDuration metric.Float64Histogram

	// Discovery metrics
	discoveryDuration   metric.Float64Histogram
	discoveredResources metric.Int64Gauge

	// Configuration
	// detailedLabels controls whether the high-cardinality resource_type label
	// is included in request metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.k8sRequestsTotal, err = meter.Int64Counter(
		"kubernetes_requests_total",
		metric.WithDescription("Total number of Kubernetes API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_requests_total counter: %w", err)
	}

	m.k8sRequestDuration, err = meter.Float64Histogram(
		"kubernetes_request_duration_seconds",
		metric.WithDescription("Kubernetes API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_request_duration_seconds histogram: %w", err)
	}

	m.discoveryDuration, err = meter.Float64Histogram(
		"kubernetes_discovery_duration_seconds",
		metric.WithDescription("Duration of a full resource discovery pass in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_discovery_duration_seconds histogram: %w", err)
	}

	m.discoveredResources, err = meter.Int64Gauge(
		"kubernetes_discovered_resources",
		metric.WithDescription("Number of resources found by the last discovery pass"),
		metric.WithUnit("{resource}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_discovered_resources gauge: %w", err)
	}

	return m, nil
}

// RecordRequest records a Kubernetes API request with operation, resource,
// HTTP status code and duration. A zero status code means no response.
//
// CARDINALITY NOTE: When detailedLabels is false (default), only operation,
// status and status_class labels are recorded. Clusters with many CRDs would
// otherwise produce one series per resource.
func (m *Metrics) RecordRequest(ctx context.Context, operation, resource string, statusCode int, duration time.Duration) {
	if m.k8sRequestsTotal == nil || m.k8sRequestDuration == nil {
		return // Instrumentation not initialized
	}

	// Always include operation and status (low cardinality)
	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, StatusFromCode(statusCode)),
		attribute.String(attrStatusClass, ClassifyStatusCode(statusCode)),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && resource != "" {
		attrs = append(attrs, attribute.String(attrResourceType, resource))
	}

	m.k8sRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.k8sRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDiscovery records a discovery pass with its status, the number of
// resources found and its duration.
func (m *Metrics) RecordDiscovery(ctx context.Context, status string, resources int, duration time.Duration) {
	if m.discoveryDuration == nil || m.discoveredResources == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	m.discoveryDuration.Record(ctx, duration.Seconds(), attrs)
	if status == StatusSuccess {
		m.discoveredResources.Record(ctx, int64(resources))
	}
}
