package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"k8s.io/client-go/rest"
)

// Config holds everything needed to talk to one API server.
// It is validated once by NewClient and never read from globals.
type Config struct {
	// Connection settings
	Server                string
	BearerToken           string
	InsecureSkipTLSVerify bool
	CAFile                string
	CAData                []byte

	// Performance settings
	QPSLimit             float32
	BurstLimit           int
	Timeout              time.Duration
	DiscoveryConcurrency int

	UserAgent string

	// Singularizer overrides the matcher's plural-to-singular rule.
	Singularizer Singularizer

	Logger  Logger
	Metrics MetricsRecorder
}

// Logger interface for client logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// MetricsRecorder receives request and discovery measurements.
type MetricsRecorder interface {
	RecordRequest(ctx context.Context, operation, resource string, statusCode int, duration time.Duration)
	RecordDiscovery(ctx context.Context, status string, resources int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(context.Context, string, string, int, time.Duration) {}
func (noopMetrics) RecordDiscovery(context.Context, string, int, time.Duration)      {}

func discardLogger() Logger {
	return slog.New(slog.DiscardHandler)
}

// Validate checks the configuration and fills in defaults for unset fields.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: client configuration is required", ErrInvalidConfig)
	}
	if c.Server == "" {
		return fmt.Errorf("%w: server URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("%w: server URL %q: %v", ErrInvalidConfig, c.Server, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: server URL %q must include scheme and host", ErrInvalidConfig, c.Server)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported server URL scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if c.BearerToken == "" {
		return fmt.Errorf("%w: bearer token is required", ErrInvalidConfig)
	}
	if c.InsecureSkipTLSVerify && (c.CAFile != "" || len(c.CAData) > 0) {
		return fmt.Errorf("%w: certificate authority cannot be combined with insecure-skip-tls-verify", ErrInvalidConfig)
	}
	if c.DiscoveryConcurrency < 0 {
		return fmt.Errorf("%w: discovery concurrency must not be negative", ErrInvalidConfig)
	}
	if c.QPSLimit < 0 || c.BurstLimit < 0 || c.Timeout < 0 {
		return fmt.Errorf("%w: qps, burst and timeout must not be negative", ErrInvalidConfig)
	}

	// Set defaults
	if c.QPSLimit == 0 {
		c.QPSLimit = DefaultQPSLimit
	}
	if c.BurstLimit == 0 {
		c.BurstLimit = DefaultBurstLimit
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout * time.Second
	}
	if c.DiscoveryConcurrency == 0 {
		c.DiscoveryConcurrency = DefaultDiscoveryConcurrency
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}

	return nil
}

// RESTConfig converts the configuration into a client-go rest.Config.
// The HTTP transport built from it attaches the bearer token and TLS settings.
func (c *Config) RESTConfig() *rest.Config {
	return &rest.Config{
		Host:        c.Server,
		BearerToken: c.BearerToken,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: c.InsecureSkipTLSVerify,
			CAFile:   c.CAFile,
			CAData:   c.CAData,
		},
		QPS:       c.QPSLimit,
		Burst:     c.BurstLimit,
		Timeout:   c.Timeout,
		UserAgent: c.UserAgent,
	}
}
