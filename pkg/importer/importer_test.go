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

package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasm6502/dasmpkg/pkg/checksum"
	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
	"github.com/dasm6502/dasmpkg/pkg/resolver"
)

func artifactSet(t *testing.T, ref string, files map[string]string) *resolver.ArtifactSet {
	t.Helper()
	root := t.TempDir()
	set := &resolver.ArtifactSet{Requirement: recipe.MustParseRequirement(ref), Root: root}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		set.Files = append(set.Files, rel)
	}
	return set
}

func TestImportCopiesHeadersKeepingPaths(t *testing.T) {
	set := artifactSet(t, "etl/20.24.1", map[string]string{
		"include/etl/vector.h":  "vector",
		"include/etl/array.h":   "array",
		"include/etl/private.c": "not a header",
		"README.md":             "docs",
		"etl.h":                 "root header",
	})
	dst := filepath.Join(t.TempDir(), "Resources")

	res, err := Import(context.Background(), []*resolver.ArtifactSet{set}, dst, Options{})
	require.NoError(t, err)

	assert.Equal(t, recipe.HeaderPattern, res.Pattern)
	assert.Equal(t, dst, res.Destination)
	assert.Equal(t, []string{"etl.h", "include/etl/array.h", "include/etl/vector.h"}, res.Files)

	got, err := os.ReadFile(filepath.Join(dst, "include", "etl", "vector.h"))
	require.NoError(t, err)
	assert.Equal(t, "vector", string(got))
	assert.NoFileExists(t, filepath.Join(dst, "include", "etl", "private.c"))
	assert.NoFileExists(t, filepath.Join(dst, "README.md"))

	require.Len(t, res.Checksums, 3)
	bad, err := checksum.Verify(context.Background(), dst)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestImportEmptyPolicy(t *testing.T) {
	set := artifactSet(t, "etl/20.24.1", map[string]string{"README.md": "docs"})

	t.Run("warn continues", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "Resources")
		res, err := Import(context.Background(), []*resolver.ArtifactSet{set}, dst, Options{Policy: EmptyPolicyWarn})
		require.NoError(t, err)
		assert.NotNil(t, res.Files)
		assert.Empty(t, res.Files)
		assert.NoDirExists(t, dst)
	})

	t.Run("fail stops", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "Resources")
		_, err := Import(context.Background(), []*resolver.ArtifactSet{set}, dst, Options{Policy: EmptyPolicyFail})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("no dependencies", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "Resources")
		_, err := Import(context.Background(), nil, dst, Options{Policy: EmptyPolicyFail})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestImportDuplicateKeepsFirst(t *testing.T) {
	first := artifactSet(t, "etl/20.24.1", map[string]string{"include/common.h": "first"})
	second := artifactSet(t, "other/1.0.0", map[string]string{"include/common.h": "second", "include/other.h": "o"})
	dst := filepath.Join(t.TempDir(), "Resources")

	res, err := Import(context.Background(), []*resolver.ArtifactSet{first, nil, second}, dst, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"include/common.h", "include/other.h"}, res.Files)

	got, err := os.ReadFile(filepath.Join(dst, "include", "common.h"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestImportCustomPattern(t *testing.T) {
	set := artifactSet(t, "etl/20.24.1", map[string]string{
		"include/a.hpp": "a",
		"include/b.h":   "b",
	})
	dst := filepath.Join(t.TempDir(), "Resources")

	res, err := Import(context.Background(), []*resolver.ArtifactSet{set}, dst, Options{Pattern: "*.hpp", Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"include/a.hpp"}, res.Files)
}

func TestImportValidation(t *testing.T) {
	set := artifactSet(t, "etl/20.24.1", map[string]string{"a.h": "a"})

	_, err := Import(context.Background(), []*resolver.ArtifactSet{set}, "relative/Resources", Options{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))

	_, err = Import(context.Background(), []*resolver.ArtifactSet{set}, t.TempDir(), Options{Pattern: "[.h"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestImportMissingSource(t *testing.T) {
	set := &resolver.ArtifactSet{
		Requirement: recipe.MustParseRequirement("etl/20.24.1"),
		Root:        t.TempDir(),
		Files:       []string{"ghost.h"},
	}
	_, err := Import(context.Background(), []*resolver.ArtifactSet{set}, filepath.Join(t.TempDir(), "R"), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
}

func TestImportCancelled(t *testing.T) {
	set := artifactSet(t, "etl/20.24.1", map[string]string{"a.h": "a", "b.h": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Import(ctx, []*resolver.ArtifactSet{set}, filepath.Join(t.TempDir(), "R"), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTimeout))
}

func TestParseEmptyPolicy(t *testing.T) {
	p, err := ParseEmptyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, EmptyPolicyWarn, p)

	p, err = ParseEmptyPolicy("FAIL")
	require.NoError(t, err)
	assert.Equal(t, EmptyPolicyFail, p)

	_, err = ParseEmptyPolicy("ignore")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestWithDefaults(t *testing.T) {
	o := withDefaults(Options{})
	assert.Equal(t, recipe.HeaderPattern, o.Pattern)
	assert.Equal(t, EmptyPolicyWarn, o.Policy)
	assert.Equal(t, defaults.ImportConcurrency, o.Concurrency)

	o = withDefaults(Options{Concurrency: 10_000})
	assert.Equal(t, defaults.MaxImportConcurrency, o.Concurrency)
}
