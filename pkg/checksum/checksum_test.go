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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := filepath.Join(dir, "include", "etl", "vector.h")
	a := filepath.Join(dir, "include", "etl", "array.h")
	writeFile(t, a, "array")
	writeFile(t, b, "vector")

	entries, err := Generate(context.Background(), dir, []string{b, a})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "include/etl/array.h", entries[0].Path)
	assert.Equal(t, "include/etl/vector.h", entries[1].Path)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		parts := strings.Split(line, "  ")
		require.Len(t, parts, 2)
		assert.Len(t, parts[0], 64)
	}
}

func TestGenerateCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestGenerateMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Generate(context.Background(), dir, []string{filepath.Join(dir, "missing.h")})
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.h")
	b := filepath.Join(dir, "sub", "b.h")
	writeFile(t, a, "one")
	writeFile(t, b, "two")

	_, err := Generate(context.Background(), dir, []string{a, b})
	require.NoError(t, err)

	bad, err := Verify(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, bad)

	writeFile(t, b, "changed")
	bad, err = Verify(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/b.h"}, bad)

	require.NoError(t, os.Remove(a))
	bad, err = Verify(context.Background(), dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.h", "sub/b.h"}, bad)
}

func TestReadMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, Path(dir), "not-a-digest  file.h\n")
	_, err := Read(Path(dir))
	assert.Error(t, err)

	_, err = Read(filepath.Join(dir, "absent.txt"))
	assert.Error(t, err)
}

func TestFileDigest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "empty.h")
	writeFile(t, p, "")
	d, err := FileDigest(p)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", d)
}
