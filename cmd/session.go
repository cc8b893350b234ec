package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/giantswarm/kube-dynamic/internal/instrumentation"
	"github.com/giantswarm/kube-dynamic/internal/k8s"
	"github.com/giantswarm/kube-dynamic/internal/logging"
	"github.com/giantswarm/kube-dynamic/internal/output"
)

// session bundles what a command needs to run one request.
type session struct {
	client    *k8s.DynamicClient
	printer   *output.Printer
	logger    *slog.Logger
	namespace string
	retries   int
}

// read runs an idempotent request, retrying transport failures.
func (s *session) read(fn func() (*unstructured.Unstructured, error)) (*unstructured.Unstructured, error) {
	var obj *unstructured.Unstructured
	err := retryTransport(s.retries, func() error {
		var err error
		obj, err = fn()
		return err
	})
	return obj, err
}

// withSession connects to the API server, runs fn and flushes telemetry.
func withSession(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	base := newLogger(cmd, v)
	logger := logging.WithOperation(base, cmd.Name())

	printer, err := newPrinter(cmd, v)
	if err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	if version := cmd.Root().Version; version != "" {
		instrConfig.ServiceVersion = version
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", k8s.ErrInvalidConfig, err)
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to shutdown instrumentation", logging.Err(err))
		}
	}()

	ctx, span := instrumentation.StartSpan(ctx, "kube-dynamic."+cmd.Name())
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
	}()

	config, err := clientConfig(cmd, v)
	if err != nil {
		return err
	}
	// Requests carry their own operation attribute.
	config.Logger = base
	if provider.Enabled() {
		config.Metrics = provider.Metrics()
	}

	retries := v.GetInt(keyRetries)

	var client *k8s.DynamicClient
	err = retryTransport(retries, func() error {
		var err error
		client, err = k8s.NewClient(ctx, config)
		if err != nil && retries > 0 && isTransportError(err) {
			logger.Warn("Discovery failed, retrying", logging.SanitizedErr(err))
		}
		return err
	})
	if err != nil {
		return err
	}

	return fn(ctx, &session{
		client:    client,
		printer:   printer,
		logger:    logger,
		namespace: v.GetString(keyNamespace),
		retries:   retries,
	})
}

// newLogger builds a text logger on the command's stderr.
func newLogger(cmd *cobra.Command, v *viper.Viper) *slog.Logger {
	level := slog.LevelWarn
	if v.GetBool(keyDebug) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newPrinter builds the output printer from --output, --slim and --mask-secrets.
func newPrinter(cmd *cobra.Command, v *viper.Viper) (*output.Printer, error) {
	format, err := output.ParseFormat(v.GetString(keyOutput))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", k8s.ErrInvalidRequest, err)
	}

	config := output.DefaultConfig()
	config.Format = format
	config.SlimOutput = v.GetBool(keySlim)
	config.MaskSecrets = v.GetBool(keyMaskSecrets)

	return output.NewPrinter(cmd.OutOrStdout(), config), nil
}

// clientConfig assembles the client configuration from flags, environment
// and config file. Server and token missing there are taken from kubeconfig.
func clientConfig(cmd *cobra.Command, v *viper.Viper) (*k8s.Config, error) {
	config := &k8s.Config{
		Server:                v.GetString(keyServer),
		BearerToken:           v.GetString(keyToken),
		InsecureSkipTLSVerify: v.GetBool(keyInsecure),
		CAFile:                expandHome(v.GetString(keyCertificateAuthority)),
		QPSLimit:              float32(v.GetFloat64(keyQPS)),
		BurstLimit:            v.GetInt(keyBurst),
		Timeout:               v.GetDuration(keyTimeout),
		DiscoveryConcurrency:  v.GetInt(keyDiscoveryConcurrency),
		UserAgent:             userAgent(cmd.Root().Version),
	}

	if config.Server != "" && config.BearerToken != "" {
		return config, nil
	}

	restConfig, err := loadKubeconfig(v.GetString(keyKubeconfig), v.GetString(keyContext))
	if err != nil {
		return nil, fmt.Errorf("%w: server and token are not set and kubeconfig could not be loaded: %v", k8s.ErrInvalidConfig, err)
	}
	if err := mergeKubeconfig(config, restConfig); err != nil {
		return nil, err
	}

	return config, nil
}

// loadKubeconfig loads the REST configuration of contextName from the
// kubeconfig at path, or from the default locations when path is empty.
func loadKubeconfig(path, contextName string) (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		loadingRules.ExplicitPath = expandHome(path)
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		configOverrides.CurrentContext = contextName
	}

	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides).ClientConfig()
}

// mergeKubeconfig fills the connection settings config does not set yet.
// Only bearer token authentication is supported.
func mergeKubeconfig(config *k8s.Config, restConfig *rest.Config) error {
	if config.Server == "" {
		config.Server = restConfig.Host
	}

	if config.BearerToken == "" {
		config.BearerToken = restConfig.BearerToken
	}
	if config.BearerToken == "" && restConfig.BearerTokenFile != "" {
		data, err := os.ReadFile(restConfig.BearerTokenFile)
		if err != nil {
			return fmt.Errorf("%w: failed to read token file: %v", k8s.ErrInvalidConfig, err)
		}
		config.BearerToken = strings.TrimSpace(string(data))
	}

	if !config.InsecureSkipTLSVerify {
		config.InsecureSkipTLSVerify = restConfig.Insecure
	}
	if !config.InsecureSkipTLSVerify && config.CAFile == "" {
		config.CAFile = restConfig.CAFile
		config.CAData = restConfig.CAData
	}

	return nil
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func userAgent(version string) string {
	if version == "" {
		return k8s.DefaultUserAgent
	}
	return k8s.DefaultUserAgent + "/" + version
}
