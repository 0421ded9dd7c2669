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

// Package recipe describes the 6502dasm package: its metadata, its single
// upstream requirement, the settings it branches on and the package info it
// exports to consumers.
//
// The recipe is consumed by pkg/pipeline in a fixed order:
//
//	d := recipe.Default()
//	if err := d.Validate(settings); err != nil { ... }
//	reqs := d.Requirements()        // [etl/20.24.1]
//	info := d.PackageInfo(settings) // includedirs: [..\Resources\include]
//
// Exported package info is a pure function of the settings. Steps that touch
// the file system share a Workspace holding absolute paths.
package recipe
