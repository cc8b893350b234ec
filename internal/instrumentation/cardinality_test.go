package instrumentation

import "testing"

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{name: "no response", input: 0, expected: StatusClassTransport},
		{name: "ok", input: 200, expected: StatusClass2xx},
		{name: "created", input: 201, expected: StatusClass2xx},
		{name: "not modified", input: 304, expected: StatusClass3xx},
		{name: "not found", input: 404, expected: StatusClass4xx},
		{name: "conflict", input: 409, expected: StatusClass4xx},
		{name: "internal error", input: 500, expected: StatusClass5xx},
		{name: "gateway timeout", input: 504, expected: StatusClass5xx},
		{name: "informational", input: 101, expected: StatusClassOther},
		{name: "out of range", input: 999, expected: StatusClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyStatusCode(tt.input)
			if result != tt.expected {
				t.Errorf("ClassifyStatusCode(%d) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, StatusError},
		{200, StatusSuccess},
		{204, StatusSuccess},
		{301, StatusError},
		{403, StatusError},
		{503, StatusError},
	}

	for _, tt := range tests {
		if result := StatusFromCode(tt.input); result != tt.expected {
			t.Errorf("StatusFromCode(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
