package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
	"github.com/giantswarm/kube-dynamic/internal/output"
)

// Configuration keys. Each key is a persistent flag, an environment variable
// with the KUBE_DYNAMIC_ prefix and an entry in the config file.
const (
	keyConfig               = "config"
	keyServer               = "server"
	keyToken                = "token"
	keyInsecure             = "insecure-skip-tls-verify"
	keyCertificateAuthority = "certificate-authority"
	keyKubeconfig           = "kubeconfig"
	keyContext              = "context"
	keyNamespace            = "namespace"
	keyTimeout              = "timeout"
	keyQPS                  = "qps"
	keyBurst                = "burst"
	keyDiscoveryConcurrency = "discovery-concurrency"
	keyOutput               = "output"
	keySlim                 = "slim"
	keyMaskSecrets          = "mask-secrets"
	keyDebug                = "debug"
)

// envPrefix is the prefix of environment variables overriding flags.
const envPrefix = "KUBE_DYNAMIC"

// rootCmd represents the base command for the kube-dynamic application.
var rootCmd *cobra.Command

// newRootCmd builds the command tree. Every tree owns its own viper instance
// so settings never leak between invocations.
func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "kube-dynamic",
		Short: "Schema-less client for Kubernetes and OpenShift API servers",
		Long: `kube-dynamic discovers the resources an API server offers at runtime and
operates on any of them by name, short name, kind or category, without
compiled-in types. It works against Kubernetes and OpenShift clusters and
handles custom resources the same way as built-in ones.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		// Errors are printed by Execute as a single line.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (default is $HOME/.kube-dynamic/config.yaml)")
	flags.String(keyServer, "", "API server URL, e.g. https://api.example.com:6443")
	flags.String(keyToken, "", "bearer token for the API server")
	flags.Bool(keyInsecure, false, "skip TLS certificate verification")
	flags.String(keyCertificateAuthority, "", "path to a CA bundle for the API server")
	flags.String(keyKubeconfig, "", "kubeconfig used when --server or --token is not set")
	flags.String(keyContext, "", "kubeconfig context to use")
	flags.StringP(keyNamespace, "n", "", "namespace of the request")
	flags.Duration(keyTimeout, k8s.DefaultTimeout*time.Second, "timeout of a single API request")
	flags.Float32(keyQPS, k8s.DefaultQPSLimit, "maximum requests per second to the API server")
	flags.Int(keyBurst, k8s.DefaultBurstLimit, "maximum burst of requests to the API server")
	flags.Int(keyRetries, 0, "retries of discovery and reads after a transport failure")
	flags.Int(keyDiscoveryConcurrency, k8s.DefaultDiscoveryConcurrency, "number of group/versions discovered in parallel")
	flags.StringP(keyOutput, "o", string(output.FormatJSON), "output format (json, yaml, table, name)")
	flags.Bool(keySlim, false, "remove managedFields and last-applied-configuration from output")
	flags.Bool(keyMaskSecrets, false, "replace Secret data with "+output.RedactedValue)
	flags.Bool(keyDebug, false, "enable debug logging on stderr")
	flags.Bool(keyNonDestructive, false, "refuse create, update, replace, patch and delete")
	flags.StringSlice(keyAllowedOperations, nil, "operations still allowed in non-destructive mode")

	// Bind flags to viper
	_ = v.BindPFlags(flags)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAPIResourcesCmd(v))
	cmd.AddCommand(newListCmd(v))
	cmd.AddCommand(newGetCmd(v))
	cmd.AddCommand(newCreateCmd(v))
	cmd.AddCommand(newUpdateCmd(v))
	cmd.AddCommand(newReplaceCmd(v))
	cmd.AddCommand(newPatchCmd(v))
	cmd.AddCommand(newDeleteCmd(v))

	return cmd
}

// initConfig layers the config file and the environment under the flags.
func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString(keyConfig); cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: failed to read config file %s: %v", k8s.ErrInvalidConfig, cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		// Without a home directory only flags and environment apply
		return nil
	}

	// Search config in ~/.kube-dynamic/config.yaml
	v.AddConfigPath(filepath.Join(home, ".kube-dynamic"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: failed to read config file: %v", k8s.ErrInvalidConfig, err)
	}
	return nil
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// It runs the root command and exits with status 1 after printing a
// one-line error when the command fails.
func Execute() {
	// SetVersionTemplate defines a custom template for displaying the version.
	rootCmd.SetVersionTemplate(`{{printf "kube-dynamic version %s\n" .Version}}`)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		_, _ = fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd = newRootCmd()
}
