package k8s

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/util/flowcontrol"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/kube-dynamic/internal/instrumentation"
	"github.com/giantswarm/kube-dynamic/internal/logging"
)

// requester issues raw HTTP calls against one API server. Authentication,
// TLS and timeouts come from the client-go transport; every call is traced,
// measured and logged at debug level.
type requester struct {
	baseURL    string
	httpClient *http.Client
	limiter    flowcontrol.RateLimiter
	userAgent  string
	logger     Logger
	metrics    MetricsRecorder
}

// request describes one API call.
type request struct {
	operation   string
	resource    string
	namespace   string
	name        string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// response is a successful (2xx) API answer.
type response struct {
	statusCode  int
	contentType string
	body        []byte
}

func newRequester(config *Config) (*requester, error) {
	httpClient, err := rest.HTTPClientFor(config.RESTConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build HTTP client: %v", ErrInvalidConfig, err)
	}

	var limiter flowcontrol.RateLimiter
	if config.QPSLimit > 0 {
		limiter = flowcontrol.NewTokenBucketRateLimiter(config.QPSLimit, config.BurstLimit)
	}

	return &requester{
		baseURL:    strings.TrimSuffix(config.Server, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		userAgent:  config.UserAgent,
		logger:     config.Logger,
		metrics:    config.Metrics,
	}, nil
}

// doRaw sends req and returns the body of a 2xx answer. Non-2xx answers become
// *APIError and connection failures *TransportError.
func (r *requester) doRaw(ctx context.Context, req request) (*response, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, req.operation, req.resource, req.namespace,
		attribute.String(instrumentation.SpanAttrHTTPMethod, req.method),
		attribute.String(instrumentation.SpanAttrURLPath, req.path))
	defer span.End()

	start := time.Now()
	resp, err := r.send(ctx, req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.statusCode
	} else {
		statusCode = statusCodeOf(err)
	}

	r.metrics.RecordRequest(ctx, req.operation, req.resource, statusCode, duration)
	if statusCode != 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatusCode, statusCode))
	}

	if err != nil {
		instrumentation.SetSpanError(span, err)
		r.logger.Debug("Kubernetes request failed", append(req.logAttrs(statusCode, duration),
			logging.Status(logging.StatusError),
			logging.SanitizedErr(err),
			logging.TraceID(instrumentation.GetTraceID(ctx)))...)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	r.logger.Debug("Kubernetes request completed", append(req.logAttrs(statusCode, duration),
		logging.Status(logging.StatusSuccess))...)

	return resp, nil
}

func (req request) logAttrs(statusCode int, duration time.Duration) []interface{} {
	attrs := []interface{}{
		logging.Operation(req.operation),
		logging.ResourceType(req.resource),
		logging.Namespace(req.namespace),
	}
	if req.name != "" {
		attrs = append(attrs, logging.ResourceName(req.name))
	}
	return append(attrs,
		logging.Method(req.method),
		logging.Path(req.path),
		logging.StatusCode(statusCode),
		logging.Duration(duration))
}

// do sends req and decodes the answer into an unstructured object.
func (r *requester) do(ctx context.Context, req request) (*unstructured.Unstructured, error) {
	resp, err := r.doRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeObject(req.method, req.path, resp)
}

func (r *requester) send(ctx context.Context, req request) (*response, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
		}
	}

	target := r.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidRequest, req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", AcceptHeader)
	httpReq.Header.Set("User-Agent", r.userAgent)
	if req.body != nil {
		contentType := req.contentType
		if contentType == "" {
			contentType = MediaTypeJSON
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, newAPIError(req.method, req.path, httpResp.StatusCode, data)
	}

	return &response{
		statusCode:  httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// jsonBody returns the response body as JSON, converting YAML answers.
// Protobuf and other media types are rejected.
func jsonBody(method, path string, resp *response) ([]byte, error) {
	mediaType := MediaTypeJSON
	if resp.contentType != "" {
		parsed, _, err := mime.ParseMediaType(resp.contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %q", ErrUnsupportedMediaType, method, path, resp.contentType)
		}
		mediaType = parsed
	}

	switch {
	case mediaType == MediaTypeJSON || strings.HasSuffix(mediaType, "+json"):
		return resp.body, nil
	case mediaType == MediaTypeYAML || mediaType == "text/yaml" || mediaType == "application/x-yaml":
		data, err := yaml.YAMLToJSON(resp.body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: failed to convert YAML response: %w", method, path, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s %s: %s", ErrUnsupportedMediaType, method, path, mediaType)
	}
}

func decodeObject(method, path string, resp *response) (*unstructured.Unstructured, error) {
	data, err := jsonBody(method, path, resp)
	if err != nil {
		return nil, err
	}

	obj := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) == 0 {
		return &unstructured.Unstructured{Object: obj}, nil
	}
	if err := utiljson.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}

	return &unstructured.Unstructured{Object: obj}, nil
}
