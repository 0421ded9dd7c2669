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

// Package resolver turns declared requirements into local file trees.
//
// Two resolvers are provided:
//   - Dir reads a pre-populated cache laid out as <cache>/<name>/<version>.
//   - OCI pulls <registry>/<namespace>/<name>:<version> with ORAS into the
//     same cache layout, skipping the pull when the entry already exists.
//
// Missing dependencies surface as NOT_FOUND structured errors.
package resolver
