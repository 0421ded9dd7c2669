/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package checksum provides SHA256 checksum generation for staged files.
//
// The import step records every header it copies into the resource folder:
//
//	entries, err := checksum.Generate(ctx, resourceDir, copied)
//
// The checksums.txt file format is compatible with sha256sum:
//
//	sha256sum -c checksums.txt
package checksum
