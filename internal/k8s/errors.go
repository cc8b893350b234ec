package k8s

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Sentinel errors for the failure kinds of the dynamic client.
// Every typed error below matches exactly one of them via errors.Is().
var (
	// ErrInvalidConfig indicates that the client configuration failed validation.
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrInvalidRequest indicates that a dispatcher call was rejected before
	// any HTTP request was issued (missing name, missing body, bad patch).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidResource indicates that a discovery entry could not be turned
	// into a resource descriptor.
	ErrInvalidResource = errors.New("invalid resource descriptor")

	// ErrDiscoveryFailed indicates that the resource catalog could not be built.
	ErrDiscoveryFailed = errors.New("discovery failed")

	// ErrNoResourceMatch indicates that a search term matched no resource.
	ErrNoResourceMatch = errors.New("no resource matched")

	// ErrAmbiguousResource indicates that a search term matched more than one
	// equally ranked resource.
	ErrAmbiguousResource = errors.New("ambiguous resource")

	// ErrUnsupportedVerb indicates that a resource does not support the requested verb.
	ErrUnsupportedVerb = errors.New("unsupported verb")

	// ErrAPIStatus indicates that the API server answered with a non-2xx status.
	ErrAPIStatus = errors.New("api server returned an error")

	// ErrTransport indicates a connection-level failure (DNS, TLS, timeout).
	ErrTransport = errors.New("transport failure")

	// ErrUnsupportedMediaType indicates a response body the client cannot decode.
	ErrUnsupportedMediaType = errors.New("unsupported response media type")
)

// maxErrorBodyLength bounds how much of a non-Status error body ends up in a message.
const maxErrorBodyLength = 512

// DiscoveryError reports a group/version whose resources could not be listed.
// It fails client construction entirely.
type DiscoveryError struct {
	GroupVersion string
	Path         string
	Err          error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	if e.GroupVersion != "" {
		return fmt.Sprintf("discovery of %s (%s) failed: %v", e.GroupVersion, e.Path, e.Err)
	}
	return fmt.Sprintf("discovery at %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause, usually an *APIError or *TransportError.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Is matches ErrDiscoveryFailed.
func (e *DiscoveryError) Is(target error) bool {
	return target == ErrDiscoveryFailed
}

// AmbiguousResourceError reports a search term that did not resolve to exactly
// one resource. Candidates holds the ranked matches; it is empty when nothing matched.
type AmbiguousResourceError struct {
	Term       string
	Candidates []ResourceDescriptor
}

// Error implements the error interface.
func (e *AmbiguousResourceError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("search term %q did not match any resource", e.Term)
	}
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.QualifiedName())
	}
	return fmt.Sprintf("search term %q is ambiguous, candidates: %s", e.Term, strings.Join(names, ", "))
}

// Is matches ErrNoResourceMatch when there are no candidates and
// ErrAmbiguousResource otherwise.
func (e *AmbiguousResourceError) Is(target error) bool {
	switch target {
	case ErrNoResourceMatch:
		return len(e.Candidates) == 0
	case ErrAmbiguousResource:
		return len(e.Candidates) > 0
	}
	return false
}

// UnsupportedVerbError reports a verb missing from a descriptor's verb set.
// The dispatcher returns it before issuing any HTTP call.
type UnsupportedVerbError struct {
	Verb     string
	Resource ResourceDescriptor
}

// Error implements the error interface.
func (e *UnsupportedVerbError) Error() string {
	return fmt.Sprintf("resource %s does not support verb %q (supported: %s)",
		e.Resource.QualifiedName(), e.Verb, strings.Join(e.Resource.Verbs, ","))
}

// Is matches ErrUnsupportedVerb.
func (e *UnsupportedVerbError) Is(target error) bool {
	return target == ErrUnsupportedVerb
}

// APIError is a non-2xx response from the API server. It is never retried.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
	Method     string
	Path       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, reason, e.Message)
}

// Is matches ErrAPIStatus.
func (e *APIError) Is(target error) bool {
	return target == ErrAPIStatus
}

// TransportError is a connection-level failure. Callers decide whether to retry.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// newAPIError builds an APIError from a failed response. The message comes from
// a metav1.Status body when the server sent one, otherwise from the raw body.
func newAPIError(method, path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
	}

	var status metav1.Status
	if err := json.Unmarshal(body, &status); err == nil && (status.Kind == "Status" || status.Message != "") {
		apiErr.Reason = string(status.Reason)
		apiErr.Message = status.Message
	}

	if apiErr.Message == "" {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBodyLength {
			text = text[:maxErrorBodyLength] + "..."
		}
		if text == "" {
			text = http.StatusText(statusCode)
		}
		apiErr.Message = text
	}

	return apiErr
}

// statusCodeOf returns the HTTP status carried by err, or 0.
func statusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	return statusCodeOf(err) == http.StatusNotFound
}

// IsConflict reports whether err is an APIError with status 409.
func IsConflict(err error) bool {
	return statusCodeOf(err) == http.StatusConflict
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	return statusCodeOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool {
	return statusCodeOf(err) == http.StatusForbidden
}
