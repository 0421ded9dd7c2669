/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the dasmpkg command-line interface.
//
// # Commands
//
// requirements - List declared dependencies:
//
//	dasmpkg requirements --format json
//
// info - Print the package info exported to consumers:
//
//	dasmpkg info --use-etl=true
//
// validate - Check settings:
//
//	dasmpkg validate --os Windows
//
// import - Resolve dependencies and stage *.h files into Resources:
//
//	dasmpkg import --workspace ./build --cache ./deps --empty-headers fail
//
// build - Run MSBuild on Windows; a no-op elsewhere:
//
//	dasmpkg build --os Windows --workspace .\build --dry-run
//
// run - All steps in order:
//
//	dasmpkg run --os Linux --workspace ./build --registry ghcr.io --namespace dasm6502/deps
//
// publish - Package Resources as an OCI artifact and optionally push it:
//
//	dasmpkg publish --workspace ./build --target oci://ghcr.io/dasm6502/6502dasm --push
//
// # Global Flags
//
//	--config, -c   YAML config file
//	--log-level    Logging verbosity (debug, info, warn, error)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// Per-command flags override the config file, which is itself overridden by
// DASMPKG_* environment variables (for example DASMPKG_OS, DASMPKG_USE_ETL,
// DASMPKG_IMPORT_EMPTY_POLICY).
//
// # Output
//
// Commands write a document with kind/apiVersion/metadata to --output (or
// stdout) as yaml (default), json or table. Logs go to stderr as JSON.
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, missing dependency, build failure)
//	2  Context canceled or timeout
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/dasm6502/dasmpkg/pkg/cli.version=1.0.0'"
package cli
