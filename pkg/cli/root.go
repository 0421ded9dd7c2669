/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/logging"
)

const (
	name           = "dasmpkg"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the CLI with os.Args and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for cancellation and timeouts, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
		return 2
	}
	return 1
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "6502dasm package recipe tool",
		Description: `dasmpkg drives the packaging recipe of the 6502dasm C++ library:

  requirements - list the declared dependencies
  info         - print the package info exported to consumers
  validate     - check recipe settings
  import       - resolve dependencies and stage their headers into Resources
  build        - run MSBuild against the Visual Studio solution (Windows only)
  run          - all of the above in order
  publish      - package the staged Resources as an OCI artifact`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file (values are overridden by DASMPKG_* env vars and flags)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "",
				Usage:   "log level (debug, info, warn, error); defaults to LOG_LEVEL or info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: initLogger,
		Commands: []*cli.Command{
			requirementsCmd(),
			infoCmd(),
			validateCmd(),
			importCmd(),
			buildCmd(),
			runCmd(),
			publishCmd(),
		},
	}
}

// initLogger configures slog after flags are parsed so --log-level takes
// effect before any command executes.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String("log-level")
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
	return ctx, nil
}
