package output

import (
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"name", FormatName, false},
		{"wide", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Format != FormatJSON {
		t.Errorf("Format = %q, want json", config.Format)
	}
	if config.SlimOutput {
		t.Error("SlimOutput should be off by default")
	}
	if config.MaskSecrets {
		t.Error("MaskSecrets should be off by default")
	}
	if len(config.ExcludedFields) == 0 {
		t.Error("ExcludedFields should have defaults")
	}
}

func TestConfigValidate(t *testing.T) {
	config := &Config{SlimOutput: true}

	validated := config.Validate()

	if validated.Format != FormatJSON {
		t.Errorf("Format = %q, want json", validated.Format)
	}
	if len(validated.ExcludedFields) != len(DefaultExcludedFields()) {
		t.Errorf("ExcludedFields = %v, want defaults", validated.ExcludedFields)
	}
	if config.Format != "" {
		t.Error("Validate should not modify the receiver")
	}
}
