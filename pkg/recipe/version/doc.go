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

// Package version parses package versions such as the recipe's own version
// ("1.0.0") and its requirement's version ("20.24.1").
//
//	v, err := version.Parse("20.24.1")
//	tag := v.String() // "20.24.1"
//
// Versions marshal to and from their string form in JSON and YAML.
package version
