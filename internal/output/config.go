package output

import (
	"fmt"
	"strings"
)

// Format selects how objects are rendered.
type Format string

// Supported output formats.
const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatName  Format = "name"
)

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTable, FormatName}
}

// ParseFormat parses a user supplied output format. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatJSON, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (supported: json, yaml, table, name)", s)
}

// Config holds configuration for output processing.
type Config struct {
	// Format is the rendering format.
	// Default: json
	Format Format `json:"format" yaml:"format"`

	// SlimOutput enables removal of verbose fields before printing.
	// Default: false
	SlimOutput bool `json:"slimOutput" yaml:"slimOutput"`

	// MaskSecrets replaces secret data with "***REDACTED***".
	// Default: false
	MaskSecrets bool `json:"maskSecrets" yaml:"maskSecrets"`

	// ExcludedFields lists field paths removed in slim mode.
	// Default: managedFields and the last-applied-configuration annotation
	ExcludedFields []string `json:"excludedFields,omitempty" yaml:"excludedFields,omitempty"`
}

// DefaultConfig returns a Config that prints server answers unchanged as JSON.
func DefaultConfig() *Config {
	return &Config{
		Format:         FormatJSON,
		ExcludedFields: DefaultExcludedFields(),
	}
}

// DefaultExcludedFields returns the default list of fields to exclude in slim mode.
func DefaultExcludedFields() []string {
	return []string{
		// Managed fields are verbose and rarely useful on the command line
		"metadata.managedFields",
		// Last-applied-configuration duplicates the entire manifest
		"metadata.annotations.kubectl.kubernetes.io/last-applied-configuration",
	}
}

// Validate returns a copy of the configuration with defaults applied.
func (c *Config) Validate() *Config {
	validated := *c

	if validated.Format == "" {
		validated.Format = FormatJSON
	}

	// Ensure excluded fields has a default if empty and slim mode is enabled
	if validated.SlimOutput && len(validated.ExcludedFields) == 0 {
		validated.ExcludedFields = DefaultExcludedFields()
	}

	return &validated
}
