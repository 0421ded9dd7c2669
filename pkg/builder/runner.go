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
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

// EnvInclude is the compiler include-path variable honored by MSVC.
const EnvInclude = "INCLUDE"

// Invocation describes one call to an external build tool.
type Invocation struct {
	// Tool is the executable name or path (e.g., "msbuild").
	Tool string `json:"tool" yaml:"tool"`
	// Target is the file the tool builds (e.g., the solution path).
	Target string `json:"target" yaml:"target"`
	// Args are the full command-line arguments, Target included.
	Args []string `json:"args" yaml:"args"`
	// IncludePaths are additional compiler search paths, exported through INCLUDE.
	IncludePaths []string `json:"includePaths,omitempty" yaml:"includePaths,omitempty"`
	// Dir is the working directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// RunResult is the outcome of a finished invocation.
type RunResult struct {
	ExitCode int           `json:"exitCode" yaml:"exitCode"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Output   string        `json:"-" yaml:"-"`
}

// Runner executes build tool invocations.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*RunResult, error)
}

// ExecRunner runs invocations as child processes.
type ExecRunner struct {
	// Output receives the tool's combined output as it runs. Nil discards it.
	Output io.Writer
	// LookPath resolves the tool; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// NewExecRunner returns a runner streaming tool output to w.
func NewExecRunner(w io.Writer) *ExecRunner {
	return &ExecRunner{Output: w, LookPath: exec.LookPath}
}

// Run starts the tool and waits for it. A non-zero exit is BUILD_FAILED; a
// missing tool is UNAVAILABLE.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*RunResult, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	toolPath, err := lookPath(inv.Tool)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			inv.Tool+" not found in PATH", err, map[string]any{"tool": inv.Tool})
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if r.Output != nil {
		out = io.MultiWriter(&buf, r.Output)
	}

	cmd := exec.CommandContext(ctx, toolPath, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = mergeEnv(os.Environ(), EnvInclude, inv.IncludePaths)
	cmd.Stdout = out
	cmd.Stderr = out

	slog.Debug("running build tool", "tool", toolPath, "args", inv.Args, "dir", inv.Dir)

	start := time.Now()
	runErr := cmd.Run()
	res := &RunResult{Duration: time.Since(start), Output: buf.String()}
	if runErr == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, apperrors.Wrap(apperrors.ErrCodeTimeout, inv.Tool+" interrupted", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, apperrors.WrapWithContext(apperrors.ErrCodeBuildFailed,
		inv.Tool+" failed", runErr,
		map[string]any{
			"tool":      inv.Tool,
			"target":    inv.Target,
			"exit_code": res.ExitCode,
			"output":    tail(res.Output, 20),
		})
}

// mergeEnv prepends paths to the list-valued variable key in env, keeping
// any existing value after them.
func mergeEnv(env []string, key string, paths []string) []string {
	if len(paths) == 0 {
		return env
	}
	prefix := key + "="
	value := strings.Join(paths, string(os.PathListSeparator))
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if len(kv) >= len(prefix) && strings.EqualFold(kv[:len(prefix)], prefix) {
			existing := kv[len(prefix):]
			if existing != "" {
				value += string(os.PathListSeparator) + existing
			}
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+value)
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}

// Recorder is a Runner that records invocations without running anything.
// It backs --dry-run and tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Invocation
	// Result is returned for every call; nil means exit code 0.
	Result *RunResult
	// Err is returned for every call when set.
	Err error
}

// Run records inv.
func (r *Recorder) Run(_ context.Context, inv Invocation) (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, inv)
	if r.Err != nil {
		return r.Result, r.Err
	}
	if r.Result != nil {
		return r.Result, nil
	}
	return &RunResult{}, nil
}

// Calls returns a copy of the recorded invocations.
func (r *Recorder) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.calls...)
}
