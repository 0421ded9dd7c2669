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

// Package importer stages dependency headers into the package's resource folder.
//
// Every file whose base name matches the pattern (default "*.h") is copied
// from each resolved dependency tree into the destination, keeping its path
// relative to the dependency root, so etl's include/etl/vector.h lands in
// Resources/include/etl/vector.h. Copies run in a bounded errgroup and a
// sha256sum-compatible checksums.txt is written next to them.
//
// What happens when nothing matches is an explicit policy: EmptyPolicyWarn
// logs and continues, EmptyPolicyFail returns a NOT_FOUND error.
package importer
