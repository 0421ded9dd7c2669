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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/oci"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

var etl = recipe.MustParseRequirement("etl/20.24.1")

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(f), 0o644))
	}
}

func TestDirResolve(t *testing.T) {
	cache := t.TempDir()
	writeTree(t, filepath.Join(cache, "etl", "20.24.1"),
		"include/etl/vector.h",
		"include/etl/array.h",
		"LICENSE",
	)

	d, err := NewDir(cache)
	require.NoError(t, err)

	set, err := d.Resolve(context.Background(), etl)
	require.NoError(t, err)
	assert.Equal(t, etl, set.Requirement)
	assert.Equal(t, filepath.Join(cache, "etl", "20.24.1"), set.Root)
	assert.Equal(t, []string{"LICENSE", "include/etl/array.h", "include/etl/vector.h"}, set.Files)
}

func TestDirResolveMissing(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	_, err = d.Resolve(context.Background(), etl)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.Contains(t, err.Error(), "etl/20.24.1")
}

func TestDirResolveCancelled(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Resolve(ctx, etl)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDirRequiresRoot(t *testing.T) {
	_, err := NewDir("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestFuncResolver(t *testing.T) {
	var r Resolver = Func(func(_ context.Context, req recipe.Requirement) (*ArtifactSet, error) {
		return &ArtifactSet{Requirement: req, Root: "/deps"}, nil
	})
	set, err := r.Resolve(context.Background(), etl)
	require.NoError(t, err)
	assert.Equal(t, "/deps", set.Root)
}

func TestOCIResolvePullsOnce(t *testing.T) {
	cache := t.TempDir()
	var calls []oci.PullOptions

	r, err := NewOCI(OCIOptions{
		Registry:  "ghcr.io",
		Namespace: "dasm6502/deps",
		CacheDir:  cache,
		Pull: func(_ context.Context, opts oci.PullOptions) (*oci.PullResult, error) {
			calls = append(calls, opts)
			writeTree(t, opts.DestDir, "include/etl/etl_profile.h")
			return &oci.PullResult{Digest: "sha256:abc", DestDir: opts.DestDir}, nil
		},
	})
	require.NoError(t, err)

	set, err := r.Resolve(context.Background(), etl)
	require.NoError(t, err)
	assert.Equal(t, []string{"include/etl/etl_profile.h"}, set.Files)

	require.Len(t, calls, 1)
	assert.Equal(t, "ghcr.io", calls[0].Registry)
	assert.Equal(t, "dasm6502/deps/etl", calls[0].Repository)
	assert.Equal(t, "20.24.1", calls[0].Tag)
	assert.Equal(t, filepath.Join(cache, "etl"), filepath.Dir(calls[0].DestDir))
	assert.NoDirExists(t, calls[0].DestDir)
	assert.FileExists(t, filepath.Join(cache, "etl", "20.24.1", "include", "etl", "etl_profile.h"))

	_, err = r.Resolve(context.Background(), etl)
	require.NoError(t, err)
	assert.Len(t, calls, 1, "cached requirement must not be pulled again")
}

func TestOCIResolvePullFailure(t *testing.T) {
	r, err := NewOCI(OCIOptions{
		Registry: "ghcr.io",
		CacheDir: t.TempDir(),
		Pull: func(context.Context, oci.PullOptions) (*oci.PullResult, error) {
			return nil, errors.New("manifest unknown")
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "etl", r.Repository(etl))

	_, err = r.Resolve(context.Background(), etl)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.Contains(t, err.Error(), "manifest unknown")
}

func TestOCIResolvePartialPullNotCached(t *testing.T) {
	cache := t.TempDir()
	fail := true

	r, err := NewOCI(OCIOptions{
		Registry: "ghcr.io",
		CacheDir: cache,
		Pull: func(_ context.Context, opts oci.PullOptions) (*oci.PullResult, error) {
			writeTree(t, opts.DestDir, "include/etl/array.h")
			if fail {
				return nil, errors.New("connection reset")
			}
			writeTree(t, opts.DestDir, "include/etl/vector.h")
			return &oci.PullResult{Digest: "sha256:abc", DestDir: opts.DestDir}, nil
		},
	})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), etl)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.NoDirExists(t, filepath.Join(cache, "etl", "20.24.1"))

	entries, err := os.ReadDir(filepath.Join(cache, "etl"))
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")

	fail = false
	set, err := r.Resolve(context.Background(), etl)
	require.NoError(t, err)
	assert.Equal(t, []string{"include/etl/array.h", "include/etl/vector.h"}, set.Files)
}

func TestOCIResolveFromLayout(t *testing.T) {
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, "include/etl/array.h")
	pkg, err := oci.Package(ctx, oci.PackageOptions{
		SourceDir: src, OutputDir: t.TempDir(),
		Registry: "localhost:5000", Repository: "deps/etl", Tag: "20.24.1",
	})
	require.NoError(t, err)

	r, err := NewOCI(OCIOptions{
		Registry: "localhost:5000",
		CacheDir: t.TempDir(),
		Pull: func(ctx context.Context, opts oci.PullOptions) (*oci.PullResult, error) {
			return oci.PullFromStore(ctx, pkg.StorePath, opts.Tag, opts.DestDir)
		},
	})
	require.NoError(t, err)

	set, err := r.Resolve(ctx, etl)
	require.NoError(t, err)
	assert.Equal(t, []string{"include/etl/array.h"}, set.Files)
}

func TestNewOCIValidation(t *testing.T) {
	_, err := NewOCI(OCIOptions{CacheDir: t.TempDir()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))

	_, err = NewOCI(OCIOptions{Registry: "ghcr.io"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}
