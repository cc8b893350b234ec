// Package instrumentation provides OpenTelemetry instrumentation for the
// kube-dynamic client.
//
// This package enables observability through:
//   - OpenTelemetry metrics for Kubernetes API requests and discovery passes
//   - Distributed tracing for Kubernetes API calls
//   - Prometheus export into a dedicated registry, optionally written to a
//     node-exporter textfile on shutdown
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Kubernetes Request Metrics:
//   - kubernetes_requests_total: Counter of API requests by operation, status and status_class
//   - kubernetes_request_duration_seconds: Histogram of API request durations
//
// Discovery Metrics:
//   - kubernetes_discovery_duration_seconds: Histogram of discovery pass durations by status
//   - kubernetes_discovered_resources: Gauge of resources found by the last successful pass
//
// # Cardinality Considerations
//
// The resource_type label is only recorded when METRICS_DETAILED_LABELS is
// set. Clusters with many CRDs produce one series per resource otherwise.
// Status codes are reduced to classes (2xx, 4xx, transport_error, ...).
//
// # Tracing
//
// Every Kubernetes API call and every discovery pass gets a client span named
// "k8s.<operation>".
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, none, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP export
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: kube-dynamic)
//   - PROMETHEUS_TEXTFILE: File the Prometheus exposition is written to on shutdown
//   - METRICS_DETAILED_LABELS: Add the resource_type label to request metrics
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	client, err := k8s.NewClient(ctx, &k8s.Config{
//		Server:      server,
//		BearerToken: token,
//		Metrics:     provider.Metrics(),
//	})
package instrumentation
