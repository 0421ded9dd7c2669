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

// Package builder invokes the external native build.
//
// MSBuild.Build runs only when the os setting is Windows; on every other
// platform it returns a skipped Result without touching the Runner. On
// Windows it runs the tool exactly once against the package's solution:
//
//	msbuild <source>\VisualStudio\6502dasm.sln /p:UseEnv=true
//
// with the staged include directory prepended to INCLUDE. The Runner
// interface keeps the step testable: ExecRunner starts a real process and
// Recorder only records the invocation (used by --dry-run).
package builder
