package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

// Patch types accepted by --patch-type.
var patchTypes = map[string]types.PatchType{
	"json":      types.JSONPatchType,
	"merge":     types.MergePatchType,
	"strategic": types.StrategicMergePatchType,
}

// listFlags holds the selectors shared by list, get and delete --all.
type listFlags struct {
	labelSelector string
	fieldSelector string
	limit         int64
	continueToken string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.labelSelector, "selector", "l", "", "label selector, e.g. app=web")
	cmd.Flags().StringVar(&f.fieldSelector, "field-selector", "", "field selector, e.g. status.phase=Running")
	cmd.Flags().Int64Var(&f.limit, "limit", 0, "maximum number of objects per page")
	cmd.Flags().StringVar(&f.continueToken, "continue", "", "continue token of a previous paged list")
}

func (f *listFlags) options(namespace string) k8s.ListOptions {
	return k8s.ListOptions{
		Namespace:     namespace,
		LabelSelector: f.labelSelector,
		FieldSelector: f.fieldSelector,
		Limit:         f.limit,
		Continue:      f.continueToken,
	}
}

func newListCmd(v *viper.Viper) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List objects of a resource",
		Long: `List objects of a resource. RESOURCE is a name, short name, kind or
category. A namespaced resource listed without --namespace spans all
namespaces.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := s.client.Resolve(args[0])
				if err != nil {
					return err
				}
				obj, err := s.read(func() (*unstructured.Unstructured, error) {
					return s.client.List(ctx, rd, flags.options(s.namespace))
				})
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newGetCmd(v *viper.Viper) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "get RESOURCE [NAME]",
		Short: "Get one object, or list the resource without a name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := s.client.Resolve(args[0])
				if err != nil {
					return err
				}

				obj, err := s.read(func() (*unstructured.Unstructured, error) {
					if len(args) == 1 {
						return s.client.List(ctx, rd, flags.options(s.namespace))
					}
					return s.client.Get(ctx, rd, args[1], s.namespace)
				})
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newCreateCmd(v *viper.Viper) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "create [RESOURCE] -f FILE",
		Short: "Create an object from a manifest",
		Long: `Create an object from a JSON or YAML manifest. Without RESOURCE the
resource is derived from the manifest's apiVersion and kind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMutatingOperation(v, "create"); err != nil {
				return err
			}
			body, err := readManifest(cmd, filename)
			if err != nil {
				return err
			}
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := resolveManifest(s.client, firstArg(args), body)
				if err != nil {
					return err
				}
				obj, err := s.client.Create(ctx, rd, s.namespace, body)
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	registerFilename(cmd, &filename)
	return cmd
}

func newUpdateCmd(v *viper.Viper) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "update [RESOURCE] -f FILE",
		Short: "Replace an object with a manifest",
		Long: `Replace an object with a JSON or YAML manifest. The object name and
namespace are read from the manifest metadata.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMutatingOperation(v, "update"); err != nil {
				return err
			}
			body, err := readManifest(cmd, filename)
			if err != nil {
				return err
			}
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := resolveManifest(s.client, firstArg(args), body)
				if err != nil {
					return err
				}
				obj, err := s.client.Update(ctx, rd, body.GetName(), s.namespace, body)
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	registerFilename(cmd, &filename)
	return cmd
}

func newReplaceCmd(v *viper.Viper) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "replace [RESOURCE] -f FILE",
		Short: "Replace an existing object with a manifest",
		Long: `Replace an existing object with a JSON or YAML manifest. Unlike update,
the object is read first and a missing object fails with the server's
NotFound answer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMutatingOperation(v, "replace"); err != nil {
				return err
			}
			body, err := readManifest(cmd, filename)
			if err != nil {
				return err
			}
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := resolveManifest(s.client, firstArg(args), body)
				if err != nil {
					return err
				}

				namespace := s.namespace
				if namespace == "" {
					namespace = body.GetNamespace()
				}
				if body.GetName() == "" {
					return fmt.Errorf("%w: replace %s requires metadata.name", k8s.ErrInvalidRequest, rd.QualifiedName())
				}

				if _, err := s.client.Get(ctx, rd, body.GetName(), namespace); err != nil {
					return err
				}
				obj, err := s.client.Update(ctx, rd, body.GetName(), namespace, body)
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	registerFilename(cmd, &filename)
	return cmd
}

func newPatchCmd(v *viper.Viper) *cobra.Command {
	var (
		patch     string
		patchFile string
		patchType string
	)

	cmd := &cobra.Command{
		Use:   "patch RESOURCE NAME",
		Short: "Patch an object",
		Long: `Patch an object with a JSON patch, JSON merge patch or strategic merge
patch. The patch is given inline with --patch or read from --patch-file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMutatingOperation(v, "patch"); err != nil {
				return err
			}
			pt, ok := patchTypes[patchType]
			if !ok {
				return fmt.Errorf("%w: unsupported patch type %q, expected json, merge or strategic", k8s.ErrInvalidRequest, patchType)
			}
			body, err := readPatch(cmd, patch, patchFile)
			if err != nil {
				return err
			}
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := s.client.Resolve(args[0])
				if err != nil {
					return err
				}
				obj, err := s.client.Patch(ctx, rd, args[1], s.namespace, pt, body)
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	cmd.Flags().StringVarP(&patch, "patch", "p", "", "patch document as JSON or YAML")
	cmd.Flags().StringVar(&patchFile, "patch-file", "", "file containing the patch document, - for stdin")
	cmd.Flags().StringVar(&patchType, "patch-type", "json", "patch type (json, merge, strategic)")
	cmd.MarkFlagsMutuallyExclusive("patch", "patch-file")
	cmd.MarkFlagsOneRequired("patch", "patch-file")
	return cmd
}

func newDeleteCmd(v *viper.Viper) *cobra.Command {
	var all bool
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "delete RESOURCE (NAME | --all)",
		Short: "Delete one object, or every matching object with --all",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMutatingOperation(v, "delete"); err != nil {
				return err
			}
			if all == (len(args) == 2) {
				return fmt.Errorf("%w: delete requires either a NAME or --all", k8s.ErrInvalidRequest)
			}
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				rd, err := s.client.Resolve(args[0])
				if err != nil {
					return err
				}

				var obj *unstructured.Unstructured
				if all {
					obj, err = s.client.DeleteCollection(ctx, rd, flags.options(s.namespace))
				} else {
					obj, err = s.client.Delete(ctx, rd, args[1], s.namespace)
				}
				if err != nil {
					return err
				}
				return s.printer.PrintObject(obj)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every object matching the selectors")
	flags.register(cmd)
	return cmd
}

func registerFilename(cmd *cobra.Command, filename *string) {
	cmd.Flags().StringVarP(filename, "filename", "f", "", "manifest file, - for stdin")
	_ = cmd.MarkFlagRequired("filename")
}

// readManifest decodes one JSON or YAML object from filename.
func readManifest(cmd *cobra.Command, filename string) (*unstructured.Unstructured, error) {
	data, err := readInput(cmd, filename)
	if err != nil {
		return nil, err
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest %s: %v", k8s.ErrInvalidRequest, filename, err)
	}

	var object map[string]interface{}
	if err := utiljson.Unmarshal(jsonData, &object); err != nil || object == nil {
		return nil, fmt.Errorf("%w: manifest %s must contain a single object", k8s.ErrInvalidRequest, filename)
	}

	return &unstructured.Unstructured{Object: object}, nil
}

// readPatch returns the patch document as JSON.
func readPatch(cmd *cobra.Command, patch, patchFile string) ([]byte, error) {
	data := []byte(patch)
	if patchFile != "" {
		var err error
		if data, err = readInput(cmd, patchFile); err != nil {
			return nil, err
		}
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse patch: %v", k8s.ErrInvalidRequest, err)
	}
	return jsonData, nil
}

// readInput reads filename, or the command's stdin for "-".
func readInput(cmd *cobra.Command, filename string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if filename == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", k8s.ErrInvalidRequest, filename, err)
	}
	return data, nil
}

// resolveManifest picks the descriptor for a manifest. An explicit term wins;
// otherwise the manifest's kind is looked up within its apiVersion.
func resolveManifest(client *k8s.DynamicClient, term string, body *unstructured.Unstructured) (k8s.ResourceDescriptor, error) {
	if term != "" {
		return client.Resolve(term)
	}

	gvk := body.GroupVersionKind()
	if gvk.Kind == "" {
		return k8s.ResourceDescriptor{}, fmt.Errorf("%w: manifest has no kind, name the resource explicitly", k8s.ErrInvalidRequest)
	}
	if gvk.Version == "" {
		return client.Resolve(gvk.Kind)
	}

	var candidates []k8s.ResourceDescriptor
	for _, rd := range client.Registry().ByKind(gvk.Kind) {
		if rd.Group == gvk.Group && rd.Version == gvk.Version {
			candidates = append(candidates, rd)
		}
	}
	if len(candidates) != 1 {
		return k8s.ResourceDescriptor{}, &k8s.AmbiguousResourceError{Term: body.GetAPIVersion() + " " + gvk.Kind, Candidates: candidates}
	}
	return candidates[0], nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
