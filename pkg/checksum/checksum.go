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

package checksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName is the standard name for checksum files.
const FileName = "checksums.txt"

// Entry is one line of a checksums file.
type Entry struct {
	Digest string `json:"sha256" yaml:"sha256"`
	Path   string `json:"path" yaml:"path"`
}

// FileDigest returns the hex-encoded SHA256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Generate writes FileName into dir with one "<sha256>  <relpath>" line per
// file, sorted by path. Paths are made relative to dir and use forward
// slashes so the file verifies with sha256sum on any platform.
func Generate(ctx context.Context, dir string, files []string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		digest, err := FileDigest(file)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = file
		}
		entries = append(entries, Entry{Digest: digest, Path: filepath.ToSlash(rel)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s\n", e.Digest, e.Path)
	}

	path := Path(dir)
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write checksums: %w", err)
	}

	slog.Debug("checksums generated",
		"file_count", len(entries),
		"path", path,
	)
	return entries, nil
}

// Verify re-hashes every file listed in dir's checksums file and returns the
// paths whose digest differs or that are missing.
func Verify(ctx context.Context, dir string) ([]string, error) {
	entries, err := Read(Path(dir))
	if err != nil {
		return nil, err
	}

	var mismatched []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		digest, err := FileDigest(filepath.Join(dir, filepath.FromSlash(e.Path)))
		if err != nil || digest != e.Digest {
			mismatched = append(mismatched, e.Path)
		}
	}
	return mismatched, nil
}

// Read parses a checksums file.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checksums: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		digest, p, ok := strings.Cut(text, "  ")
		if !ok || len(digest) != sha256.Size*2 {
			return nil, fmt.Errorf("malformed checksum line %d in %s", line, path)
		}
		entries = append(entries, Entry{Digest: digest, Path: p})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return entries, nil
}

// Path returns the full path to the checksums file in dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}
