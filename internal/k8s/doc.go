// Package k8s provides a schema-less client for Kubernetes and OpenShift
// style resource APIs.
//
// Nothing about the served resource kinds is compiled in. The client asks the
// API server what exists and then offers uniform CRUD on any of it:
//
//   - Discoverer: lists group/versions (/api, /oapi, /apis) and their resources
//   - Registry: immutable catalog of ResourceDescriptor values
//   - Matcher: resolves user terms ("deploy", "Pod", "pods") to descriptors
//   - URL templates: per-descriptor paths with {namespace} and {name} slots
//   - Dispatcher: one method per verb, descriptor passed explicitly
//
// Every failure is a typed error matching one of the package sentinels via
// errors.Is.
//
// Example usage:
//
//	client, err := k8s.NewClient(ctx, &k8s.Config{
//		Server:      "https://api.example.com:6443",
//		BearerToken: token,
//	})
//	if err != nil {
//		return err
//	}
//
//	rd, err := client.Resolve("deploy")
//	if err != nil {
//		return err
//	}
//
//	// List deployments across all namespaces
//	list, err := client.List(ctx, rd, k8s.ListOptions{})
//	if err != nil {
//		return err
//	}
package k8s
