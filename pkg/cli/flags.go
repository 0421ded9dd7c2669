/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dasm6502/dasmpkg/pkg/builder"
	"github.com/dasm6502/dasmpkg/pkg/config"
	"github.com/dasm6502/dasmpkg/pkg/logging"
	"github.com/dasm6502/dasmpkg/pkg/pipeline"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
	"github.com/dasm6502/dasmpkg/pkg/resolver"
	"github.com/dasm6502/dasmpkg/pkg/serializer"
)

func osFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "os",
		Usage: fmt.Sprintf("Target operating system (supported values: %s)", strings.Join(recipe.SupportedOSTypes(), ", ")),
	}
}

func useETLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "use-etl",
		Usage: "Export the USE_ETL define to consumers (true/false, yes/no, on/off)",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func workspaceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "workspace",
		Aliases: []string{"w"},
		Usage:   "Package build folder; Resources is created inside it",
	}
}

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "source",
		Usage: "Directory holding the Visual Studio solution (default: workspace)",
	}
}

func cacheFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "cache",
		Usage: "Local dependency cache laid out as <cache>/<name>/<version>",
	}
}

func registryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "registry",
		Usage: "OCI registry to pull dependencies from (e.g., ghcr.io); empty uses the cache only",
	}
}

func namespaceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "namespace",
		Usage: "Repository prefix for dependencies in --registry (e.g., dasm6502/deps)",
	}
}

func plainHTTPFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "plain-http",
		Usage: "Use HTTP instead of HTTPS for the OCI registry (for local development)",
	}
}

func insecureTLSFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "insecure-tls",
		Usage: "Skip TLS certificate verification for the OCI registry",
	}
}

func emptyHeadersFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "empty-headers",
		Usage: "What to do when no headers match: warn or fail",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Record the build invocation without running it",
	}
}

func settingsFlags() []cli.Flag {
	return []cli.Flag{osFlag(), useETLFlag()}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{outputFlag(), formatFlag()}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	return serializer.ParseFormat(cmd.String("format"))
}

// loadConfig reads --config and the environment, then applies flags that
// were set explicitly.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"os", &cfg.OS},
		{"use-etl", &cfg.UseETL},
		{"workspace", &cfg.Workspace},
		{"source", &cfg.Source},
		{"cache", &cfg.Cache},
		{"registry", &cfg.Registry.URL},
		{"namespace", &cfg.Registry.Namespace},
		{"empty-headers", &cfg.Import.EmptyPolicy},
	}
	for _, o := range overrides {
		if hasFlag(cmd, o.flag) && cmd.IsSet(o.flag) {
			*o.dst = cmd.String(o.flag)
		}
	}
	if hasFlag(cmd, "plain-http") && cmd.IsSet("plain-http") {
		cfg.Registry.PlainHTTP = cmd.Bool("plain-http")
	}
	if hasFlag(cmd, "insecure-tls") && cmd.IsSet("insecure-tls") {
		cfg.Registry.InsecureTLS = cmd.Bool("insecure-tls")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// --log-level and LOG_LEVEL win over log.level and DASMPKG_LOG_LEVEL.
	if !cmd.Root().IsSet("log-level") && cfg.Log.Level != "" {
		logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.Log.Level)
	}
	return cfg, nil
}

// hasFlag reports whether cmd declares the flag.
func hasFlag(cmd *cli.Command, name string) bool {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

// newResolver picks the registry resolver when a registry is configured.
func newResolver(cfg *config.Config) (resolver.Resolver, error) {
	if cfg.Registry.URL == "" {
		return resolver.NewDir(cfg.Cache)
	}
	return resolver.NewOCI(resolver.OCIOptions{
		Registry:    cfg.Registry.URL,
		Namespace:   cfg.Registry.Namespace,
		CacheDir:    cfg.Cache,
		PlainHTTP:   cfg.Registry.PlainHTTP,
		InsecureTLS: cfg.Registry.InsecureTLS,
	})
}

// newBuilder returns the MSBuild step; dry runs only record the invocation.
func newBuilder(cfg *config.Config, dryRun bool) *builder.MSBuild {
	var runner builder.Runner = builder.NewExecRunner(os.Stderr)
	if dryRun {
		runner = &builder.Recorder{}
	}
	return builder.NewMSBuild(runner, cfg.BuildOptions())
}

// runSteps executes the selected pipeline steps and writes the report.
func runSteps(ctx context.Context, cmd *cli.Command, steps ...pipeline.Step) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ws, err := cfg.ResolveWorkspace()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Settings:     cfg.Settings,
		Workspace:    ws,
		Import:       cfg.ImportOptions(),
		Steps:        steps,
		BuildTimeout: cfg.Build.Timeout,
		Version:      version,
	}
	if needs(steps, pipeline.StepResolve) {
		if opts.Resolver, err = newResolver(cfg); err != nil {
			return err
		}
	}
	if needs(steps, pipeline.StepBuild) {
		opts.Builder = newBuilder(cfg, hasFlag(cmd, "dry-run") && cmd.Bool("dry-run"))
	}

	report, runErr := pipeline.Run(ctx, opts)
	if report != nil {
		if err := writeOutput(ctx, format, cmd.String("output"), report); err != nil {
			slog.Error("failed to write report", "error", err)
		}
	}
	return runErr
}

func needs(steps []pipeline.Step, step pipeline.Step) bool {
	return len(steps) == 0 || slices.Contains(steps, step)
}

// writeOutput serializes v to path, or stdout when path is empty.
func writeOutput(ctx context.Context, format serializer.Format, path string, v any) error {
	ser, err := serializer.NewFileWriterOrStdout(format, path)
	if err != nil {
		return err
	}
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()
	return ser.Serialize(ctx, v)
}
