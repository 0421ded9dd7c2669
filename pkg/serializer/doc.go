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

// Package serializer encodes and decodes the tool's output documents.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, indented
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable, used for package-info.yaml
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - Flattened FIELD/VALUE rows for terminal viewing
//   - Keys follow json tags; empty lists render as []
//   - Write-only (no deserialization support)
//
// # Usage - Encoding
//
//	w, err := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	if err := w.Serialize(ctx, info); err != nil {
//	    return err
//	}
//
// # Usage - Decoding
//
//	info, err := serializer.FromFile[recipe.PackageInfo]("package-info.yaml")
//
// FromFile detects the format from the file extension. Errors carry
// structured codes: a missing file is NOT_FOUND and a malformed document
// is INVALID_REQUEST.
package serializer
