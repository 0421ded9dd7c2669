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

package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dasm6502/dasmpkg/pkg/builder"
	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/header"
	"github.com/dasm6502/dasmpkg/pkg/importer"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
	"github.com/dasm6502/dasmpkg/pkg/resolver"
	"github.com/dasm6502/dasmpkg/pkg/serializer"
)

// PackageInfoFile is written to the workspace root after the package info step.
const PackageInfoFile = "package-info.yaml"

// Step names one stage of the recipe.
type Step string

const (
	StepValidate     Step = "validate"
	StepRequirements Step = "requirements"
	StepResolve      Step = "resolve"
	StepImport       Step = "import"
	StepPackageInfo  Step = "package_info"
	StepBuild        Step = "build"
)

// Order is the fixed execution order. Selected steps always run in it.
var Order = []Step{StepValidate, StepRequirements, StepResolve, StepImport, StepPackageInfo, StepBuild}

// Builder runs the native build step.
type Builder interface {
	Build(ctx context.Context, s recipe.Settings, ws *recipe.Workspace, includeDir string) (*builder.Result, error)
}

// Options configures a pipeline run.
type Options struct {
	// Recipe defaults to recipe.Default().
	Recipe    *recipe.Descriptor
	Settings  recipe.Settings
	Workspace *recipe.Workspace
	Resolver  resolver.Resolver
	Import    importer.Options
	Builder   Builder
	// Steps selects a subset of Order; nil runs every step.
	Steps []Step
	// BuildTimeout defaults to defaults.BuildTimeout.
	BuildTimeout time.Duration
	// Version is stamped into the report header.
	Version string
}

// StepResult records one executed step.
type StepResult struct {
	Step     Step          `json:"step" yaml:"step"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resolved summarizes an artifact set.
type Resolved struct {
	Requirement string `json:"requirement" yaml:"requirement"`
	Root        string `json:"root" yaml:"root"`
	Files       int    `json:"files" yaml:"files"`
}

// Report is the document produced by a run.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	RunID        string               `json:"runId" yaml:"runId"`
	Recipe       string               `json:"recipe" yaml:"recipe"`
	Settings     recipe.Settings      `json:"settings" yaml:"settings"`
	Workspace    *recipe.Workspace    `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Requirements []recipe.Requirement `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Resolved     []Resolved           `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Import       *importer.Result     `json:"import,omitempty" yaml:"import,omitempty"`
	PackageInfo  *recipe.PackageInfo  `json:"packageInfo,omitempty" yaml:"packageInfo,omitempty"`
	Build        *builder.Result      `json:"build,omitempty" yaml:"build,omitempty"`
	Steps        []StepResult         `json:"steps" yaml:"steps"`
}

type run struct {
	opts   Options
	report *Report
	sets   []*resolver.ArtifactSet
}

// Run executes the selected steps strictly in Order. It stops at the first
// failing step and returns the partial report with the error.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Recipe == nil {
		opts.Recipe = recipe.Default()
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = defaults.BuildTimeout
	}
	steps := opts.Steps
	if len(steps) == 0 {
		steps = Order
	}
	for _, s := range steps {
		if !slices.Contains(Order, s) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"unknown pipeline step", map[string]any{"step": string(s)})
		}
	}

	r := &run{
		opts: opts,
		report: &Report{
			RunID:     uuid.New().String(),
			Recipe:    opts.Recipe.Reference(),
			Settings:  opts.Settings,
			Workspace: opts.Workspace,
			Steps:     []StepResult{},
		},
	}
	r.report.Init(header.KindPackageReport, opts.Version)
	r.report.Metadata["runId"] = r.report.RunID

	logger := slog.With("runId", r.report.RunID, "recipe", r.report.Recipe)
	logger.Info("starting recipe run", "os", opts.Settings.OS, "useEtl", opts.Settings.UseETL)

	for _, step := range Order {
		if !slices.Contains(steps, step) {
			continue
		}
		if err := r.exec(ctx, logger, step); err != nil {
			return r.report, err
		}
	}

	logger.Info("recipe run finished", "steps", len(r.report.Steps))
	return r.report, nil
}

func (r *run) exec(ctx context.Context, logger *slog.Logger, step Step) error {
	start := time.Now()
	err := r.step(ctx, step)
	elapsed := time.Since(start)

	stepDuration.WithLabelValues(string(step)).Observe(elapsed.Seconds())
	res := StepResult{Step: step, Duration: elapsed}
	if err != nil {
		stepFailures.WithLabelValues(string(step)).Inc()
		res.Error = err.Error()
		logger.Error("step failed", "step", step, "duration", elapsed, "error", err)
	} else {
		logger.Debug("step finished", "step", step, "duration", elapsed)
	}
	r.report.Steps = append(r.report.Steps, res)
	return err
}

func (r *run) step(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, "run canceled", err)
	}

	switch step {
	case StepValidate:
		return r.opts.Recipe.Validate(r.opts.Settings)
	case StepRequirements:
		r.report.Requirements = r.opts.Recipe.Requirements()
		return nil
	case StepResolve:
		return r.resolve(ctx)
	case StepImport:
		return r.stage(ctx)
	case StepPackageInfo:
		return r.packageInfo(ctx)
	case StepBuild:
		return r.build(ctx)
	default:
		return apperrors.New(apperrors.ErrCodeInternal, "unhandled step "+string(step))
	}
}

func (r *run) resolve(ctx context.Context) error {
	if r.opts.Resolver == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "a resolver is required to resolve requirements")
	}
	reqs := r.report.Requirements
	if reqs == nil {
		reqs = r.opts.Recipe.Requirements()
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ResolveTimeout)
	defer cancel()

	for _, req := range reqs {
		set, err := r.opts.Resolver.Resolve(ctx, req)
		if err != nil {
			return err
		}
		r.sets = append(r.sets, set)
		r.report.Resolved = append(r.report.Resolved, Resolved{
			Requirement: req.String(),
			Root:        set.Root,
			Files:       len(set.Files),
		})
	}
	return nil
}

func (r *run) stage(ctx context.Context) error {
	if r.opts.Workspace == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "a workspace is required to import artifacts")
	}
	if r.sets == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "import requires the resolve step")
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ImportTimeout)
	defer cancel()

	res, err := importer.Import(ctx, r.sets, r.opts.Workspace.ResourceDir, r.opts.Import)
	if err != nil {
		return err
	}
	r.report.Import = res
	return nil
}

func (r *run) packageInfo(ctx context.Context) error {
	info := r.opts.Recipe.PackageInfo(r.opts.Settings)
	r.report.PackageInfo = &info
	if r.opts.Workspace == nil {
		return nil
	}
	return serializer.WriteFile(ctx, filepath.Join(r.opts.Workspace.Root, PackageInfoFile), info)
}

func (r *run) build(ctx context.Context) error {
	if r.opts.Builder == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "a builder is required for the build step")
	}
	if r.opts.Workspace == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "a workspace is required for the build step")
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.BuildTimeout)
	defer cancel()

	res, err := r.opts.Builder.Build(ctx, r.opts.Settings, r.opts.Workspace, r.opts.Workspace.IncludeDir())
	r.report.Build = res
	return err
}
