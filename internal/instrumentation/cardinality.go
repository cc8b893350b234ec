package instrumentation

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Raw HTTP status codes and resource names are unbounded across API servers
// with many CRDs; metrics use the classes below and leave per-resource detail
// to traces.

// Status class label values.
const (
	StatusClass2xx       = "2xx"
	StatusClass3xx       = "3xx"
	StatusClass4xx       = "4xx"
	StatusClass5xx       = "5xx"
	StatusClassTransport = "transport_error"
	StatusClassOther     = "other"
)

// ClassifyStatusCode maps an HTTP status code to a status class.
// A zero code means no response was received.
//
//	| Code    | Classification  |
//	|---------|-----------------|
//	| 0       | transport_error |
//	| 200-299 | 2xx             |
//	| 300-399 | 3xx             |
//	| 400-499 | 4xx             |
//	| 500-599 | 5xx             |
//	| other   | other           |
func ClassifyStatusCode(code int) string {
	switch {
	case code == 0:
		return StatusClassTransport
	case code >= 200 && code < 300:
		return StatusClass2xx
	case code >= 300 && code < 400:
		return StatusClass3xx
	case code >= 400 && code < 500:
		return StatusClass4xx
	case code >= 500 && code < 600:
		return StatusClass5xx
	default:
		return StatusClassOther
	}
}

// StatusFromCode returns StatusSuccess for 2xx codes and StatusError otherwise.
func StatusFromCode(code int) string {
	if code >= 200 && code < 300 {
		return StatusSuccess
	}
	return StatusError
}
