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

package builder

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

// DefaultTool is the MSBuild executable name.
const DefaultTool = "msbuild"

// BuildOS is the only operating system setting that triggers a native build.
const BuildOS = recipe.OSWindows

// Options configures the MSBuild step.
type Options struct {
	// Tool defaults to DefaultTool.
	Tool string
	// Solution is relative to the workspace source dir; defaults to recipe.SolutionPath.
	Solution string
	// Configuration and Platform are passed as /p: properties when set.
	Configuration string
	Platform      string
	// ExtraArgs are appended after the generated arguments.
	ExtraArgs []string
}

// Result reports what the build step did.
type Result struct {
	OS         recipe.OSType `json:"os" yaml:"os"`
	Skipped    bool          `json:"skipped" yaml:"skipped"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Invocation *Invocation   `json:"invocation,omitempty" yaml:"invocation,omitempty"`
	ExitCode   int           `json:"exitCode" yaml:"exitCode"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// MSBuild builds the package's Visual Studio solution on Windows.
type MSBuild struct {
	runner Runner
	opts   Options
}

// NewMSBuild returns the build step using runner.
func NewMSBuild(runner Runner, opts Options) *MSBuild {
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if opts.Solution == "" {
		opts.Solution = recipe.SolutionPath
	}
	return &MSBuild{runner: runner, opts: opts}
}

// Invocation returns the call Build makes for a workspace and include directory.
func (m *MSBuild) Invocation(ws *recipe.Workspace, includeDir string) Invocation {
	target := filepath.Join(ws.SourceDir, filepath.FromSlash(strings.ReplaceAll(m.opts.Solution, `\`, "/")))

	// includeDir reaches cl.exe through INCLUDE; a ';' inside a /p: value
	// would split it into separate properties.
	args := []string{target, "/p:UseEnv=true"}
	if m.opts.Configuration != "" {
		args = append(args, "/p:Configuration="+m.opts.Configuration)
	}
	if m.opts.Platform != "" {
		args = append(args, "/p:Platform="+m.opts.Platform)
	}
	args = append(args, m.opts.ExtraArgs...)

	return Invocation{
		Tool:         m.opts.Tool,
		Target:       target,
		Args:         args,
		IncludePaths: []string{includeDir},
		Dir:          ws.SourceDir,
	}
}

// Build runs MSBuild once when s.OS is Windows and does nothing otherwise.
// includeDir must be absolute. Tool failures are returned as BUILD_FAILED
// and are not retried.
func (m *MSBuild) Build(ctx context.Context, s recipe.Settings, ws *recipe.Workspace, includeDir string) (*Result, error) {
	res := &Result{OS: s.OS}
	if s.OS != BuildOS {
		res.Skipped = true
		res.Reason = "native build runs only when os is " + BuildOS.String()
		slog.Info("skipping native build", "os", s.OS)
		return res, nil
	}
	if ws == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "workspace is required for the native build")
	}
	if !filepath.IsAbs(includeDir) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"include directory must be an absolute path", map[string]any{"includeDir": includeDir})
	}

	inv := m.Invocation(ws, includeDir)
	res.Invocation = &inv

	slog.Info("running native build",
		"tool", inv.Tool,
		"target", inv.Target,
		"include", includeDir)

	run, err := m.runner.Run(ctx, inv)
	if run != nil {
		res.ExitCode = run.ExitCode
		res.Duration = run.Duration
	}
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.WrapWithContext(apperrors.ErrCodeBuildFailed, "native build failed", err,
				map[string]any{"tool": inv.Tool, "target": inv.Target})
		}
		return res, err
	}

	slog.Info("native build finished", "duration", res.Duration)
	return res, nil
}
