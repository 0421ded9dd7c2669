// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline drives the package recipe.
//
// Run executes validate, requirements, resolve, import, package_info and
// build strictly in that order. Options.Steps narrows the run to a subset
// (the CLI subcommands use this) without changing the order. Each step is
// bounded by its timeout from pkg/defaults and reported to Prometheus:
//
//	dasmpkg_step_duration_seconds{step="import"}
//	dasmpkg_step_failures_total{step="build"}
//
// The returned Report carries a PackageReport header and a random run ID.
// When a workspace is set, the package info step also writes
// package-info.yaml to the workspace root.
package pipeline
