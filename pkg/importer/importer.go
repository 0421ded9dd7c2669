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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dasm6502/dasmpkg/pkg/checksum"
	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
	"github.com/dasm6502/dasmpkg/pkg/resolver"
)

// EmptyPolicy decides what happens when no file matches the pattern.
type EmptyPolicy string

const (
	// EmptyPolicyWarn logs a warning and continues with an empty resource folder.
	EmptyPolicyWarn EmptyPolicy = "warn"
	// EmptyPolicyFail stops the pipeline with a NOT_FOUND error.
	EmptyPolicyFail EmptyPolicy = "fail"
)

// IsValid reports whether p is a known policy.
func (p EmptyPolicy) IsValid() bool {
	return p == EmptyPolicyWarn || p == EmptyPolicyFail
}

// ParseEmptyPolicy parses a policy name; empty means warn.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	p := EmptyPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return EmptyPolicyWarn, nil
	}
	if !p.IsValid() {
		return "", apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid empty-match policy %q (supported values: warn, fail)", s),
			map[string]any{"policy": s})
	}
	return p, nil
}

// Options configures Import.
type Options struct {
	// Pattern is matched against file base names; defaults to recipe.HeaderPattern.
	Pattern string
	// Policy applies when nothing matches; defaults to EmptyPolicyWarn.
	Policy EmptyPolicy
	// Concurrency bounds parallel copies; defaults to defaults.ImportConcurrency.
	Concurrency int
}

// Result describes what was staged.
type Result struct {
	Destination string           `json:"destination" yaml:"destination"`
	Pattern     string           `json:"pattern" yaml:"pattern"`
	Files       []string         `json:"files" yaml:"files"`
	Checksums   []checksum.Entry `json:"checksums,omitempty" yaml:"checksums,omitempty"`
}

type copyJob struct {
	src string
	rel string
}

// Import copies every file whose base name matches the pattern from the
// resolved artifact sets into dst, keeping paths relative to each set's root.
// When two sets provide the same relative path the first one wins.
func Import(ctx context.Context, sets []*resolver.ArtifactSet, dst string, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	if _, err := path.Match(opts.Pattern, ""); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid import pattern", err)
	}
	if !filepath.IsAbs(dst) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"import destination must be an absolute path", map[string]any{"destination": dst})
	}

	jobs := plan(sets, opts.Pattern)
	res := &Result{Destination: dst, Pattern: opts.Pattern, Files: []string{}}

	if len(jobs) == 0 {
		if opts.Policy == EmptyPolicyFail {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				fmt.Sprintf("no files matching %q in resolved dependencies", opts.Pattern),
				map[string]any{"pattern": opts.Pattern, "dependencies": len(sets)})
		}
		slog.Warn("no files matched import pattern, continuing",
			"pattern", opts.Pattern,
			"dependencies", len(sets))
		return res, nil
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create resource folder", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return copyFile(j.src, filepath.Join(dst, filepath.FromSlash(j.rel)))
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeTimeout, "import interrupted", ctxErr)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stage files", err)
	}

	staged := make([]string, 0, len(jobs))
	for _, j := range jobs {
		res.Files = append(res.Files, j.rel)
		staged = append(staged, filepath.Join(dst, filepath.FromSlash(j.rel)))
	}

	sums, err := checksum.Generate(ctx, dst, staged)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to record checksums", err)
	}
	res.Checksums = sums

	slog.Info("staged dependency files",
		"pattern", opts.Pattern,
		"files", len(res.Files),
		"destination", dst)

	return res, nil
}

func withDefaults(opts Options) Options {
	if opts.Pattern == "" {
		opts.Pattern = recipe.HeaderPattern
	}
	if opts.Policy == "" {
		opts.Policy = EmptyPolicyWarn
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.ImportConcurrency
	}
	opts.Concurrency = min(opts.Concurrency, defaults.MaxImportConcurrency)
	return opts
}

// plan lists the copies to perform, sorted by destination path.
func plan(sets []*resolver.ArtifactSet, pattern string) []copyJob {
	seen := make(map[string]string)
	var jobs []copyJob
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, f := range set.Files {
			if ok, _ := path.Match(pattern, path.Base(f)); !ok {
				continue
			}
			if prev, dup := seen[f]; dup {
				slog.Warn("duplicate file across dependencies, keeping first",
					"file", f,
					"kept", prev,
					"skipped", set.Requirement.String())
				continue
			}
			seen[f] = set.Requirement.String()
			jobs = append(jobs, copyJob{src: filepath.Join(set.Root, filepath.FromSlash(f)), rel: f})
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].rel < jobs[k].rel })
	return jobs
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
