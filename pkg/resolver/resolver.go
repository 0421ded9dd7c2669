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

package resolver

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

// ArtifactSet is the resolved file tree of one requirement.
type ArtifactSet struct {
	Requirement recipe.Requirement `json:"requirement" yaml:"requirement"`
	// Root is the absolute directory holding the dependency's files.
	Root string `json:"root" yaml:"root"`
	// Files are the regular files under Root, slash-separated and sorted.
	Files []string `json:"files" yaml:"files"`
}

// Resolver resolves a requirement to a local artifact set.
type Resolver interface {
	Resolve(ctx context.Context, req recipe.Requirement) (*ArtifactSet, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, req recipe.Requirement) (*ArtifactSet, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, req recipe.Requirement) (*ArtifactSet, error) {
	return f(ctx, req)
}

// Dir resolves requirements from a local cache laid out as <root>/<name>/<version>.
type Dir struct {
	root string
}

// NewDir returns a cache-directory resolver rooted at root.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "cache directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve cache directory", err)
	}
	return &Dir{root: abs}, nil
}

// PathFor returns the cache directory of a requirement.
func (d *Dir) PathFor(req recipe.Requirement) string {
	return filepath.Join(d.root, req.Name, req.Version.String())
}

// Resolve lists the cached files of req. A missing cache entry is NOT_FOUND.
func (d *Dir) Resolve(ctx context.Context, req recipe.Requirement) (*ArtifactSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := d.PathFor(req)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"requirement is not in the local cache", err,
			map[string]any{"requirement": req.String(), "path": root})
	}

	files, err := listFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	slog.Debug("requirement resolved from cache",
		"requirement", req.String(),
		"root", root,
		"files", len(files))

	return &ArtifactSet{Requirement: req, Root: root, Files: files}, nil
}

func listFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, e fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to list artifact files", err,
			map[string]any{"root": root})
	}
	sort.Strings(files)
	return files, nil
}

// populated reports whether dir exists and has at least one entry.
func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
