package k8s

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/giantswarm/kube-dynamic/internal/instrumentation"
	"github.com/giantswarm/kube-dynamic/internal/logging"
)

const operationDiscovery = "discovery"

// Discoverer builds the resource catalog of an API server.
type Discoverer struct {
	requester   *requester
	concurrency int
	logger      Logger
	metrics     MetricsRecorder
}

// NewDiscoverer returns a discoverer for the server described by config.
func NewDiscoverer(config *Config) (*Discoverer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	req, err := newRequester(config)
	if err != nil {
		return nil, err
	}
	return newDiscoverer(req, config), nil
}

func newDiscoverer(req *requester, config *Config) *Discoverer {
	return &Discoverer{
		requester:   req,
		concurrency: config.DiscoveryConcurrency,
		logger:      config.Logger,
		metrics:     config.Metrics,
	}
}

// DiscoverGroups returns every group/version to list resources for.
//
// The Kubernetes legacy v1 group is always first. The OpenShift legacy group
// follows when GET /version/openshift succeeds; any failure of that probe just
// omits it. Every group/version advertised under /apis comes last, flagged
// preferred when it is the group's preferred version.
func (d *Discoverer) DiscoverGroups(ctx context.Context) ([]GroupVersion, error) {
	groups := []GroupVersion{{
		Platform:    PlatformKubernetes,
		RoutePrefix: RouteLegacy,
		Version:     "v1",
		Preferred:   true,
	}}

	if d.isOpenShift(ctx) {
		groups = append(groups, GroupVersion{
			Platform:    PlatformOpenShift,
			RoutePrefix: RouteLegacy,
			Version:     "v1",
			Preferred:   true,
		})
	}

	resp, err := d.requester.doRaw(ctx, request{
		operation: operationDiscovery,
		method:    http.MethodGet,
		path:      APIGroupsPath,
	})
	if err != nil {
		return nil, &DiscoveryError{Path: APIGroupsPath, Err: err}
	}

	var groupList metav1.APIGroupList
	if err := decodeDiscovery(resp, APIGroupsPath, &groupList, false); err != nil {
		return nil, &DiscoveryError{Path: APIGroupsPath, Err: err}
	}

	for _, group := range groupList.Groups {
		for _, gv := range group.Versions {
			groups = append(groups, GroupVersion{
				Platform:    PlatformKubernetes,
				RoutePrefix: RouteExtended,
				Group:       group.Name,
				Version:     gv.Version,
				Preferred:   gv.Version == group.PreferredVersion.Version,
			})
		}
	}

	return groups, nil
}

// DiscoverResources lists the resources served under gv. Sub-resources are
// skipped; entries with unknown fields or missing name/kind fail the call.
func (d *Discoverer) DiscoverResources(ctx context.Context, gv GroupVersion) ([]ResourceDescriptor, error) {
	path := gv.Root()

	resp, err := d.requester.doRaw(ctx, request{
		operation: operationDiscovery,
		resource:  gv.String(),
		method:    http.MethodGet,
		path:      path,
	})
	if err != nil {
		return nil, &DiscoveryError{GroupVersion: gv.String(), Path: path, Err: err}
	}

	var resourceList metav1.APIResourceList
	if err := decodeDiscovery(resp, path, &resourceList, true); err != nil {
		return nil, &DiscoveryError{GroupVersion: gv.String(), Path: path, Err: err}
	}

	newDescriptor := NewKubernetesResource
	if gv.Platform == PlatformOpenShift {
		newDescriptor = NewOpenShiftResource
	}

	descriptors := make([]ResourceDescriptor, 0, len(resourceList.APIResources))
	for _, res := range resourceList.APIResources {
		if isSubresource(res.Name) {
			continue
		}
		rd, err := newDescriptor(gv, res)
		if err != nil {
			return nil, &DiscoveryError{GroupVersion: gv.String(), Path: path, Err: err}
		}
		descriptors = append(descriptors, rd)
	}

	d.logger.Debug("Discovered resources",
		logging.GroupVersion(gv.String()),
		logging.Path(path),
		"count", len(descriptors))

	return descriptors, nil
}

// Discover runs a full discovery pass. Group/versions are listed in parallel,
// bounded by the configured concurrency. Either every listing succeeds or the
// pass fails; results keep group/version order.
func (d *Discoverer) Discover(ctx context.Context) ([]ResourceDescriptor, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, operationDiscovery, "", "")
	defer span.End()

	start := time.Now()
	descriptors, err := d.discover(ctx)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		d.metrics.RecordDiscovery(ctx, logging.StatusError, 0, duration)
		d.logger.Error("Discovery failed", logging.Duration(duration), logging.SanitizedErr(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrResourceCount, len(descriptors)))
	instrumentation.SetSpanSuccess(span)
	d.metrics.RecordDiscovery(ctx, logging.StatusSuccess, len(descriptors), duration)
	d.logger.Debug("Discovery completed", logging.Duration(duration), "resources", len(descriptors))

	return descriptors, nil
}

func (d *Discoverer) discover(ctx context.Context) ([]ResourceDescriptor, error) {
	groups, err := d.DiscoverGroups(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]ResourceDescriptor, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, gv := range groups {
		g.Go(func() error {
			descriptors, err := d.DiscoverResources(gctx, gv)
			if err != nil {
				return err
			}
			results[i] = descriptors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ResourceDescriptor
	for _, descriptors := range results {
		all = append(all, descriptors...)
	}
	return all, nil
}

func (d *Discoverer) isOpenShift(ctx context.Context) bool {
	_, err := d.requester.doRaw(ctx, request{
		operation: operationDiscovery,
		method:    http.MethodGet,
		path:      OpenShiftVersionPath,
	})
	if err != nil {
		d.logger.Debug("OpenShift legacy API not available", logging.SanitizedErr(err))
		return false
	}
	return true
}

// decodeDiscovery decodes a discovery document. In strict mode unknown fields
// are rejected.
func decodeDiscovery(resp *response, path string, into interface{}, strict bool) error {
	data, err := jsonBody(http.MethodGet, path, resp)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("malformed discovery document: %w", err)
	}
	if decoder.More() {
		return errors.New("malformed discovery document: trailing data")
	}
	return nil
}
