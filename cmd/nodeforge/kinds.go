package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/factories"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

func newKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds [graph-kind]",
		Short: "List the node kinds each registered factory supports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := factory.NewRegistry()
			if err := factories.Register(registry, asset.NewIndex()); err != nil {
				return err
			}

			graphKinds := registry.GraphKinds()
			if len(args) == 1 {
				wanted := graph.Kind(args[0])
				if _, ok := registry.Factory(wanted); !ok {
					return fmt.Errorf("unknown graph kind %q; known: %s",
						args[0], joinKinds(graphKinds))
				}
				graphKinds = []graph.Kind{wanted}
			}

			for _, gk := range graphKinds {
				f, _ := registry.Factory(gk)
				cmd.Printf("%s\n", gk)
				for _, kind := range f.Kinds() {
					desc, err := f.Describe(kind)
					if err != nil {
						return err
					}
					cmd.Printf("  %-22s %s\n", kind, desc)
					printParams(cmd, "required", f.RequiredParams, kind)
					printParams(cmd, "optional", f.OptionalParams, kind)
				}
			}
			return nil
		},
	}
}

func printParams(cmd *cobra.Command, label string, list func(string) ([]factory.ParamSpec, error), kind string) {
	specs, err := list(kind)
	if err != nil || len(specs) == 0 {
		return
	}
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, fmt.Sprintf("%s(%s)", spec.Name, spec.Kind))
	}
	cmd.Printf("      %s: %s\n", label, strings.Join(names, ", "))
}

func joinKinds(kinds []graph.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
