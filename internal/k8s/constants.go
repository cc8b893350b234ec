package k8s

const (
	// Default performance settings
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
	DefaultTimeout    = 30 // seconds

	// Number of group/versions listed in parallel during discovery
	DefaultDiscoveryConcurrency = 4

	// Discovery paths
	APIGroupsPath        = "/apis"
	OpenShiftVersionPath = "/version/openshift"

	// Content negotiation
	AcceptHeader = "application/json, application/yaml;q=0.9, application/vnd.kubernetes.protobuf;q=0.8"

	MediaTypeJSON     = "application/json"
	MediaTypeYAML     = "application/yaml"
	MediaTypeProtobuf = "application/vnd.kubernetes.protobuf"

	// User agent product name; the CLI appends its version
	DefaultUserAgent = "kube-dynamic"
)
