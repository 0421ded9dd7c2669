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

// Package oci moves package trees in and out of OCI registries with ORAS.
//
// Dependencies are pulled into the local cache by the OCI resolver, and the
// finished package is published as an artifact of type ArtifactType:
//
//	res, err := oci.Package(ctx, oci.PackageOptions{
//	    SourceDir:  ws.Root,
//	    OutputDir:  distDir,
//	    Registry:   "ghcr.io",
//	    Repository: "dasm6502/6502dasm",
//	    Tag:        "1.0.0",
//	})
//	pushed, err := oci.PushFromStore(ctx, res.StorePath, oci.PushOptions{...})
//
//	pulled, err := oci.Pull(ctx, oci.PullOptions{
//	    Registry: "ghcr.io", Repository: "dasm6502/deps/etl", Tag: "20.24.1",
//	    DestDir: cacheDir,
//	})
//
// Registry credentials come from the Docker configuration via the ORAS
// credentials package. Targets are written as oci://registry/repository:tag.
package oci
