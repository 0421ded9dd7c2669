/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/oci"
	"github.com/dasm6502/dasmpkg/pkg/pipeline"
)

// runCLI runs the root command in-process and decodes the JSON written to --output.
func runCLI(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.json")
	argv := append([]string{name}, args...)
	argv = append(argv, "--format", "json", "--output", out)

	err := newRootCmd().Run(context.Background(), argv)

	b, readErr := os.ReadFile(out)
	if readErr != nil || len(b) == 0 {
		return nil, err
	}
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	return doc, err
}

func depCache(t *testing.T) string {
	t.Helper()
	cache := t.TempDir()
	inc := filepath.Join(cache, "etl", "20.24.1", "include", "etl")
	require.NoError(t, os.MkdirAll(inc, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inc, "array.h"), []byte("#pragma once\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "etl", "20.24.1", "LICENSE"), []byte("MIT\n"), 0o600))
	return cache
}

func TestRequirementsCmd(t *testing.T) {
	doc, err := runCLI(t, "requirements")
	require.NoError(t, err)

	assert.Equal(t, "Recipe", doc["kind"])
	assert.Equal(t, "6502dasm", doc["name"])
	reqs, ok := doc["requirements"].([]any)
	require.True(t, ok)
	require.Len(t, reqs, 1)
	req := reqs[0].(map[string]any)
	assert.Equal(t, "etl", req["name"])
	assert.Equal(t, "20.24.1", req["version"])
}

func TestInfoCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		defines []any
	}{
		{name: "flag absent", args: nil, defines: []any{}},
		{name: "flag false", args: []string{"--use-etl", "false"}, defines: []any{}},
		{name: "flag true", args: []string{"--use-etl", "true"}, defines: []any{"USE_ETL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := runCLI(t, append([]string{"info"}, tt.args...)...)
			require.NoError(t, err)

			info := doc["packageInfo"].(map[string]any)
			assert.Equal(t, []any{`..\Resources\include`}, info["includedirs"])
			assert.Equal(t, tt.defines, info["defines"])
		})
	}
}

func TestInfoCmd_InvalidFlag(t *testing.T) {
	_, err := runCLI(t, "info", "--use-etl", "maybe")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}

func TestValidateCmd_UnknownOS(t *testing.T) {
	_, err := runCLI(t, "validate", "--os", "Amiga")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}

func TestRunCmd_Linux(t *testing.T) {
	ws := t.TempDir()
	doc, err := runCLI(t, "run", "--os", "Linux", "--workspace", ws, "--cache", depCache(t))
	require.NoError(t, err)

	assert.Equal(t, "PackageReport", doc["kind"])
	build := doc["build"].(map[string]any)
	assert.Equal(t, true, build["skipped"])
	assert.Nil(t, build["invocation"])

	info := doc["packageInfo"].(map[string]any)
	assert.Equal(t, []any{}, info["defines"])

	assert.FileExists(t, filepath.Join(ws, "Resources", "include", "etl", "array.h"))
	assert.NoFileExists(t, filepath.Join(ws, "Resources", "LICENSE"))
	assert.FileExists(t, filepath.Join(ws, pipeline.PackageInfoFile))
}

func TestRunCmd_WindowsDryRun(t *testing.T) {
	ws := t.TempDir()
	doc, err := runCLI(t, "run", "--os", "windows", "--use-etl", "yes",
		"--workspace", ws, "--cache", depCache(t), "--dry-run")
	require.NoError(t, err)

	build := doc["build"].(map[string]any)
	assert.Equal(t, false, build["skipped"])
	inv := build["invocation"].(map[string]any)
	assert.Equal(t, "msbuild", inv["tool"])
	assert.Equal(t, filepath.Join(ws, "VisualStudio", "6502dasm.sln"), inv["target"])
	assert.Equal(t, []any{filepath.Join(ws, "Resources", "include")}, inv["includePaths"])

	info := doc["packageInfo"].(map[string]any)
	assert.Equal(t, []any{"USE_ETL"}, info["defines"])
}

func TestImportCmd_EmptyHeadersFail(t *testing.T) {
	cache := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cache, "etl", "20.24.1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "etl", "20.24.1", "README.md"), nil, 0o600))

	_, err := runCLI(t, "import", "--workspace", t.TempDir(), "--cache", cache, "--empty-headers", "fail")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestImportCmd_MissingDependency(t *testing.T) {
	doc, err := runCLI(t, "import", "--workspace", t.TempDir(), "--cache", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	// the partial report is still written
	require.NotNil(t, doc)
	steps := doc["steps"].([]any)
	last := steps[len(steps)-1].(map[string]any)
	assert.Equal(t, "resolve", last["step"])
	assert.NotEmpty(t, last["error"])
}

func TestPublishCmd_Local(t *testing.T) {
	ws := t.TempDir()
	_, err := runCLI(t, "run", "--use-etl", "true", "--workspace", ws, "--cache", depCache(t))
	require.NoError(t, err)

	doc, err := runCLI(t, "publish", "--workspace", ws, "--target", "oci://localhost:5000/dasm6502/6502dasm")
	require.NoError(t, err)

	assert.Equal(t, "localhost:5000/dasm6502/6502dasm:1.0.0", doc["reference"])
	assert.NotEmpty(t, doc["digest"])
	assert.Equal(t, false, doc["pushed"])
	assert.DirExists(t, filepath.Join(ws, oci.LayoutDirName))

	info := doc["packageInfo"].(map[string]any)
	assert.Equal(t, []any{"USE_ETL"}, info["defines"])
}

func TestPublishCmd_NothingStaged(t *testing.T) {
	_, err := runCLI(t, "publish", "--workspace", t.TempDir(), "--target", "oci://localhost:5000/dasm6502/6502dasm:1.0.0")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestPublishCmd_BadTarget(t *testing.T) {
	_, err := runCLI(t, "publish", "--workspace", t.TempDir(), "--target", "ghcr.io/dasm6502/6502dasm")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}

func TestLogLevelFromConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	t.Setenv("DASMPKG_LOG_LEVEL", "debug")

	tests := []struct {
		name  string
		args  []string
		debug bool
	}{
		{name: "config level applies", args: []string{"info"}, debug: true},
		{name: "flag wins", args: []string{"--log-level", "warn", "info"}, debug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, slog.Default().Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestLogLevelFromConfig_Invalid(t *testing.T) {
	t.Setenv("DASMPKG_LOG_LEVEL", "verbose")

	_, err := runCLI(t, "info")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}
