/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/dasm6502/dasmpkg/pkg/header"
	"github.com/dasm6502/dasmpkg/pkg/pipeline"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

// recipeDocument is the output of the requirements command.
type recipeDocument struct {
	header.Header `json:",inline" yaml:",inline"`

	Name         string               `json:"name" yaml:"name"`
	Version      string               `json:"version" yaml:"version"`
	Author       string               `json:"author,omitempty" yaml:"author,omitempty"`
	URL          string               `json:"url,omitempty" yaml:"url,omitempty"`
	Description  string               `json:"description,omitempty" yaml:"description,omitempty"`
	Topics       []string             `json:"topics,omitempty" yaml:"topics,omitempty"`
	Requirements []recipe.Requirement `json:"requirements" yaml:"requirements"`
}

// infoDocument is the output of the info command.
type infoDocument struct {
	header.Header `json:",inline" yaml:",inline"`

	Settings    recipe.Settings    `json:"settings" yaml:"settings"`
	PackageInfo recipe.PackageInfo `json:"packageInfo" yaml:"packageInfo"`
}

func requirementsCmd() *cli.Command {
	return &cli.Command{
		Name:  "requirements",
		Usage: "List the dependencies declared by the recipe",
		Description: `Prints the recipe descriptor and its requirements. The list does not
depend on settings:

  dasmpkg requirements --format json`,
		Flags: outputFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			d := recipe.Default()
			doc := recipeDocument{
				Name:         d.Name,
				Version:      d.Version.String(),
				Author:       d.Author,
				URL:          d.URL,
				Description:  d.Description,
				Topics:       d.Topics,
				Requirements: d.Requirements(),
			}
			doc.Init(header.KindRecipe, version)

			return writeOutput(ctx, format, cmd.String("output"), doc)
		},
	}
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Print the package info exported to consumers",
		Description: `Computes the include directories and defines consumers of the package
receive. The include directory is always ..\Resources\include; USE_ETL is
defined only when --use-etl is true:

  dasmpkg info --use-etl=true --format json`,
		Flags: append(settingsFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			doc := infoDocument{
				Settings:    cfg.Settings,
				PackageInfo: recipe.Default().PackageInfo(cfg.Settings),
			}
			doc.Init(header.KindPackageInfo, version)

			return writeOutput(ctx, format, cmd.String("output"), doc)
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate recipe settings",
		Flags: append(settingsFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSteps(ctx, cmd, pipeline.StepValidate, pipeline.StepRequirements)
		},
	}
}

func importCmd() *cli.Command {
	flags := []cli.Flag{workspaceFlag(), cacheFlag(), registryFlag(), namespaceFlag(),
		plainHTTPFlag(), insecureTLSFlag(), emptyHeadersFlag()}
	return &cli.Command{
		Name:  "import",
		Usage: "Resolve dependencies and stage their headers into Resources",
		Description: `Resolves every requirement from the local cache (or --registry) and copies
each *.h file into <workspace>/Resources, keeping relative paths. A
checksums.txt of the staged files is written next to them.

  dasmpkg import --workspace ./build --cache ~/.cache/dasmpkg
  dasmpkg import --workspace ./build --registry ghcr.io --namespace dasm6502/deps`,
		Flags: append(append(settingsFlags(), flags...), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSteps(ctx, cmd,
				pipeline.StepValidate, pipeline.StepRequirements, pipeline.StepResolve, pipeline.StepImport)
		},
	}
}

func buildCmd() *cli.Command {
	flags := []cli.Flag{workspaceFlag(), sourceFlag(), dryRunFlag()}
	return &cli.Command{
		Name:  "build",
		Usage: "Build the Visual Studio solution (Windows only)",
		Description: `Runs MSBuild once against VisualStudio\6502dasm.sln with the staged include
directory on INCLUDE. For any --os other than Windows the step is skipped.

  dasmpkg build --os Windows --workspace .\build --source .
  dasmpkg build --os Windows --dry-run --format json`,
		Flags: append(append(settingsFlags(), flags...), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSteps(ctx, cmd, pipeline.StepValidate, pipeline.StepBuild)
		},
	}
}

func runCmd() *cli.Command {
	flags := []cli.Flag{workspaceFlag(), sourceFlag(), cacheFlag(), registryFlag(), namespaceFlag(),
		plainHTTPFlag(), insecureTLSFlag(), emptyHeadersFlag(), dryRunFlag()}
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full recipe: resolve, import, package info and build",
		Description: `Runs every step in order and writes package-info.yaml into the workspace.
The report lists each step with its duration:

  dasmpkg run --os Linux --workspace ./build --cache ./deps
  dasmpkg run --os Windows --use-etl=true --workspace .\build`,
		Flags: append(append(settingsFlags(), flags...), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSteps(ctx, cmd)
		},
	}
}
