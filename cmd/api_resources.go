package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

func newAPIResourcesCmd(v *viper.Viper) *cobra.Command {
	var (
		apiGroup   string
		namespaced bool
		preferred  bool
	)

	cmd := &cobra.Command{
		Use:   "api-resources [TERM]",
		Short: "Print the resources discovered on the API server",
		Long: `Print the resources discovered on the API server. With TERM only the
resources matching it are printed, best match first. JSON and YAML output
include the URL templates of every resource.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, v, func(ctx context.Context, s *session) error {
				var descriptors []k8s.ResourceDescriptor
				if len(args) == 1 {
					descriptors = s.client.Search(args[0])
				} else {
					descriptors = s.client.Registry().All()
				}

				filterNamespaced := cmd.Flags().Changed("namespaced")
				kept := descriptors[:0]
				for _, rd := range descriptors {
					if cmd.Flags().Changed("api-group") && !strings.EqualFold(rd.Group, apiGroup) {
						continue
					}
					if filterNamespaced && rd.Namespaced != namespaced {
						continue
					}
					if preferred && !rd.Preferred {
						continue
					}
					kept = append(kept, rd)
				}

				s.logger.Debug("Printing resource catalog", "resources", len(kept), "total", s.client.Registry().Len())
				return s.printer.PrintResources(kept)
			})
		},
	}

	cmd.Flags().StringVar(&apiGroup, "api-group", "", "only print resources of this group, empty for the core group")
	cmd.Flags().BoolVar(&namespaced, "namespaced", true, "only print namespaced (true) or cluster-scoped (false) resources")
	cmd.Flags().BoolVar(&preferred, "preferred", false, "only print the preferred version of each resource")
	return cmd
}
