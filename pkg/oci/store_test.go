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

package oci

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestPackageValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		opts PackageOptions
		msg  string
	}{
		{"missing tag", PackageOptions{Registry: "ghcr.io", Repository: "a/b"}, "tag is required"},
		{"missing registry", PackageOptions{Repository: "a/b", Tag: "1.0.0"}, "registry is required"},
		{"missing repository", PackageOptions{Registry: "ghcr.io", Tag: "1.0.0"}, "repository is required"},
		{"bad repository", PackageOptions{Registry: "ghcr.io", Repository: "A/B", Tag: "1.0.0"}, "invalid registry reference"},
		{"title annotation", PackageOptions{
			Registry: "ghcr.io", Repository: "a/b", Tag: "1.0.0",
			Annotations: map[string]string{ociv1.AnnotationTitle: "6502dasm"},
		}, "title annotation is not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.SourceDir = t.TempDir()
			tt.opts.OutputDir = t.TempDir()
			_, err := Package(ctx, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
		})
	}
}

func TestPackageCreatesLayout(t *testing.T) {
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"Resources/include/etl/array.h": "#pragma once\n",
		"package-info.yaml":             "includedirs: []\n",
	})
	out := t.TempDir()

	res, err := Package(ctx, PackageOptions{
		SourceDir:   src,
		OutputDir:   out,
		Registry:    "ghcr.io",
		Repository:  "dasm6502/6502dasm",
		Tag:         "1.0.0",
		Annotations: map[string]string{ociv1.AnnotationVersion: "1.0.0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/dasm6502/6502dasm:1.0.0", res.Reference)
	assert.True(t, strings.HasPrefix(res.Digest, "sha256:"))
	assert.Equal(t, filepath.Join(out, LayoutDirName), res.StorePath)
	assert.FileExists(t, filepath.Join(res.StorePath, "oci-layout"))
	assert.FileExists(t, filepath.Join(res.StorePath, "index.json"))

	manifestPath := filepath.Join(res.StorePath, "blobs", "sha256", strings.TrimPrefix(res.Digest, "sha256:"))
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	var manifest ociv1.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, ArtifactType, manifest.ArtifactType)
	require.Len(t, manifest.Layers, 1)
	assert.Equal(t, ociv1.MediaTypeImageLayerGzip, manifest.Layers[0].MediaType)
	assert.Equal(t, "1.0.0", manifest.Annotations[ociv1.AnnotationVersion])
}

func TestPackageLeavesSourceUntouched(t *testing.T) {
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"checksums.txt":       "",
		"include/etl/array.h": "array",
	})
	before, err := os.ReadDir(src)
	require.NoError(t, err)

	_, err = Package(ctx, PackageOptions{
		SourceDir:  src,
		OutputDir:  t.TempDir(),
		Registry:   "ghcr.io",
		Repository: "dasm6502/6502dasm",
		Tag:        "1.0.0",
		Annotations: map[string]string{
			ociv1.AnnotationVersion:     "1.0.0",
			ociv1.AnnotationDescription: "6502 disassembler",
		},
	})
	require.NoError(t, err)

	after, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Equal(t, names(before), names(after))
}

func names(entries []os.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestPackageThenPullFromStore(t *testing.T) {
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"include/etl/array.h":  "array",
		"include/etl/vector.h": "vector",
	})

	res, err := Package(ctx, PackageOptions{
		SourceDir:  src,
		OutputDir:  t.TempDir(),
		Registry:   "localhost:5000",
		Repository: "deps/etl",
		Tag:        "20.24.1",
	})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "etl", "20.24.1")
	pulled, err := PullFromStore(ctx, res.StorePath, "20.24.1", dest)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, pulled.Digest)

	got, err := os.ReadFile(filepath.Join(dest, "include", "etl", "vector.h"))
	require.NoError(t, err)
	assert.Equal(t, "vector", string(got))
}

func TestPullFromStoreUnknownTag(t *testing.T) {
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.h": "a"})
	res, err := Package(ctx, PackageOptions{
		SourceDir: src, OutputDir: t.TempDir(),
		Registry: "ghcr.io", Repository: "a/b", Tag: "1.0.0",
	})
	require.NoError(t, err)

	_, err = PullFromStore(ctx, res.StorePath, "9.9.9", t.TempDir())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestPushFromStoreValidation(t *testing.T) {
	ctx := context.Background()

	_, err := PushFromStore(ctx, t.TempDir(), PushOptions{Registry: "ghcr.io", Repository: "a/b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag is required")

	_, err = PushFromStore(ctx, t.TempDir(), PushOptions{Registry: "bad registry", Repository: "a/b", Tag: "1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestPullValidation(t *testing.T) {
	ctx := context.Background()

	_, err := Pull(ctx, PullOptions{Registry: "ghcr.io", Repository: "a/b", DestDir: t.TempDir()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))

	_, err = Pull(ctx, PullOptions{Registry: "", Repository: "a/b", Tag: "1", DestDir: t.TempDir()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestCreateAuthClient(t *testing.T) {
	c := createAuthClient(false, true)
	require.NotNil(t, c.Client)
	assert.NotNil(t, c.Cache)
}
