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

// Package config loads dasmpkg configuration with koanf.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. an optional YAML file (--config)
//  3. DASMPKG_* environment variables
//
// CLI flags are applied on top by the caller. Example file:
//
//	os: Windows
//	use_etl: true
//	workspace: ./build
//	registry:
//	  url: ghcr.io
//	  namespace: dasm6502/deps
//	import:
//	  empty_policy: fail
//	build:
//	  configuration: Release
//	  timeout: 45m
//
// use_etl accepts true/false, yes/no, on/off and 1/0; anything else is an
// INVALID_REQUEST error rather than a silent false.
package config
