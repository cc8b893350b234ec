// Package cmd provides the command-line interface for kube-dynamic.
//
// Every command connects to one API server, discovers its resources and
// addresses them by a search term: a resource name, singular name, short
// name, kind or category.
//
// Command Structure:
//
//	kube-dynamic api-resources [TERM]           # Prints the discovered catalog
//	kube-dynamic list RESOURCE                  # Lists a collection
//	kube-dynamic get RESOURCE [NAME]            # Reads one object or the collection
//	kube-dynamic create [RESOURCE] -f FILE      # Creates an object from a manifest
//	kube-dynamic update [RESOURCE] -f FILE      # Replaces an object
//	kube-dynamic replace [RESOURCE] -f FILE     # Replaces an object that must exist
//	kube-dynamic patch RESOURCE NAME -p PATCH   # Patches an object
//	kube-dynamic delete RESOURCE (NAME | --all) # Deletes objects
//	kube-dynamic version                        # Shows version information
//
// Connection settings come from flags, KUBE_DYNAMIC_* environment variables
// and $HOME/.kube-dynamic/config.yaml, in that order of precedence. When no
// server or token is configured they are read from kubeconfig.
//
// Failures are printed as a single line naming the error kind:
//
//	Error: NoResourceMatch: search term "foo" did not match any resource
package cmd
