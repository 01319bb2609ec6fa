package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/batch"
	"github.com/c360/nodeforge/compile"
	"github.com/c360/nodeforge/config"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factories"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
	"github.com/c360/nodeforge/metric"
)

type applyFlags struct {
	assetPath string
	batchPath string
	graphName string
	dryRun    bool
	onError   string
	verbosity string
	compile   bool
	output    string
	write     bool
}

func newApplyCommand(root *rootFlags) *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch mutation request to one graph of an asset fixture",
		Example: `  nodeforge apply --asset hero.yaml --batch add-overlap-handler.yaml
  nodeforge apply --asset hero.yaml --batch edit.yaml --dry-run --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, root, flags)
		},
	}

	cmd.Flags().StringVar(&flags.assetPath, "asset", "", "Asset fixture file (required)")
	cmd.Flags().StringVar(&flags.batchPath, "batch", "", "Batch request file, YAML or JSON (required)")
	cmd.Flags().StringVar(&flags.graphName, "graph", "", "Graph name; overrides the request's graph field")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report what would happen without mutating the graph")
	cmd.Flags().StringVar(&flags.onError, "on-error", "", "Failure policy: rollback, continue, or stop")
	cmd.Flags().StringVar(&flags.verbosity, "verbosity", "", "Result detail: summary, normal, or detailed")
	cmd.Flags().BoolVar(&flags.compile, "compile", false, "Run structural validation after the mutation phases")
	cmd.Flags().StringVar(&flags.output, "output", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flags.write, "write", false, "Write the mutated asset back to the fixture file")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}

func runApply(cmd *cobra.Command, root *rootFlags, flags *applyFlags) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger := root.buildLogger(cfg)

	owner, index, err := asset.LoadFile(flags.assetPath)
	if err != nil {
		return err
	}
	req, err := loadRequest(flags.batchPath)
	if err != nil {
		return err
	}
	applyOverrides(req, cfg, flags)

	g, err := selectGraph(owner, flags.graphName, req.Graph)
	if err != nil {
		return err
	}

	registry := factory.NewRegistry()
	if err := factories.Register(registry, index); err != nil {
		return err
	}
	metrics := metric.NewRegistry(cfg.MetricsNamespace)
	engine := batch.NewEngine(registry,
		batch.WithCompiler(compile.NewStructuralValidator()),
		batch.WithLogger(logger),
		batch.WithMetrics(metrics.CoreMetrics()),
		batch.WithMaxOperations(cfg.MaxOperations),
		batch.WithMaxAliasLength(cfg.MaxAliasLength),
	)

	result, err := engine.Execute(cmd.Context(), owner, g, req)
	if err != nil {
		return err
	}
	if err := printResult(cmd, result, flags.output); err != nil {
		return err
	}

	if flags.write && result.Success && !result.DryRun {
		if err := writeAsset(flags.assetPath, owner); err != nil {
			return err
		}
	}
	if !result.Success {
		return fmt.Errorf("batch failed")
	}
	return nil
}

// loadRequest parses a batch request file. YAML is a superset of JSON here,
// so one decoder covers both formats.
func loadRequest(path string) (*batch.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapNotFound(err, "CLI", "loadRequest", "batch file read")
	}
	req := &batch.Request{}
	if err := yaml.Unmarshal(data, req); err != nil {
		return nil, errors.WrapValidation(err, "CLI", "loadRequest", "batch file parsing")
	}
	return req, nil
}

// applyOverrides layers config defaults under the request and flag values
// over it.
func applyOverrides(req *batch.Request, cfg *config.Config, flags *applyFlags) {
	if req.OnError == "" {
		req.OnError = cfg.OnError
	}
	if req.Verbosity == "" {
		req.Verbosity = cfg.Verbosity
	}
	if flags.onError != "" {
		req.OnError = batch.OnError(flags.onError)
	}
	if flags.verbosity != "" {
		req.Verbosity = batch.Verbosity(flags.verbosity)
	}
	if flags.dryRun {
		req.DryRun = true
	}
	if flags.compile {
		req.Compile = true
	}
}

func selectGraph(owner *asset.Asset, flagName, reqName string) (*graph.Graph, error) {
	name := reqName
	if flagName != "" {
		name = flagName
	}
	if name == "" {
		if len(owner.Graphs) == 1 {
			return owner.Graphs[0], nil
		}
		return nil, fmt.Errorf("asset %q has %d graphs; name one with --graph", owner.Name, len(owner.Graphs))
	}
	if g := owner.Graph(name); g != nil {
		return g, nil
	}
	return nil, errors.WrapNotFound(
		fmt.Errorf("graph %q in asset %q: %w", name, owner.Name, errors.ErrGraphNotFound),
		"CLI", "selectGraph", "graph lookup")
}

func printResult(cmd *cobra.Command, result *batch.Result, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	status := "applied"
	switch {
	case result.DryRun:
		status = "dry-run"
	case result.RolledBack:
		status = "rolled back"
	case result.Stopped:
		status = "stopped"
	case !result.Success:
		status = "failed"
	}
	cmd.Printf("batch %s: success=%v\n", status, result.Success)

	c := result.Counts
	for _, line := range []struct {
		label string
		n     int
	}{
		{"nodes removed", c.NodesRemoved},
		{"links broken", c.LinksBroken + c.PinLinksBroken},
		{"nodes enabled", c.NodesEnabled},
		{"nodes disabled", c.NodesDisabled},
		{"nodes reconstructed", c.NodesReconstructed},
		{"pins split", c.PinsSplit},
		{"pins recombined", c.PinsRecombined},
		{"nodes created", c.NodesCreated},
		{"connections made", c.ConnectionsMade},
		{"pin values set", c.PinValuesSet},
	} {
		if line.n > 0 {
			cmd.Printf("  %-20s %d\n", line.label, line.n)
		}
	}
	for alias, id := range result.Aliases {
		cmd.Printf("  alias @%-12s -> %s\n", alias, id)
	}
	for _, failed := range result.Failed {
		cmd.Printf("  FAILED %s[%d] %s: %s\n", failed.Phase, failed.Index, failed.Target, failed.Error)
	}
	if d := result.Diagnostics; d != nil {
		for _, diag := range d.Errors {
			cmd.Printf("  compile error %s: %s\n", diag.Code, diag.Message)
		}
		for _, diag := range d.Warnings {
			cmd.Printf("  compile warning %s: %s\n", diag.Code, diag.Message)
		}
	}
	return nil
}

// writeAsset rewrites the fixture file with the mutated asset, preserving
// the fixture's index section.
func writeAsset(path string, owner *asset.Asset) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file asset.File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	file.Asset = owner

	out, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
