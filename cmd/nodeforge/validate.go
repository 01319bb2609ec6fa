package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/compile"
)

func newValidateCommand(root *rootFlags) *cobra.Command {
	var assetPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Structurally validate every graph of an asset fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger := root.buildLogger(cfg)

			owner, _, err := asset.LoadFile(assetPath)
			if err != nil {
				return err
			}
			logger.Debug("asset loaded", "asset", owner.Name, "graphs", len(owner.Graphs))

			validator := compile.NewStructuralValidator()
			failed := false
			for _, g := range owner.Graphs {
				diags, err := validator.Compile(cmd.Context(), owner, g)
				if err != nil {
					return err
				}
				cmd.Printf("%s (%s): %d errors, %d warnings\n",
					g.Name, g.Kind, len(diags.Errors), len(diags.Warnings))
				for _, diag := range diags.Errors {
					cmd.Printf("  error %s: %s\n", diag.Code, diag.Message)
				}
				for _, diag := range diags.Warnings {
					cmd.Printf("  warning %s: %s\n", diag.Code, diag.Message)
				}
				if diags.HasErrors() {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetPath, "asset", "", "Asset fixture file (required)")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}
