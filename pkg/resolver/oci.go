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
	"log/slog"
	"os"
	"path"
	"path/filepath"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/oci"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

// PullFunc fetches a tagged artifact into destDir.
type PullFunc func(ctx context.Context, opts oci.PullOptions) (*oci.PullResult, error)

// OCIOptions configures the registry resolver.
type OCIOptions struct {
	// Registry is the registry host.
	Registry string
	// Namespace prefixes the repository; requirement "etl/20.24.1" maps to
	// <Registry>/<Namespace>/etl:20.24.1.
	Namespace string
	// CacheDir holds pulled trees as <CacheDir>/<name>/<version>.
	CacheDir    string
	PlainHTTP   bool
	InsecureTLS bool
	// Pull overrides the ORAS pull, mainly for tests.
	Pull PullFunc
}

// OCI resolves requirements from an OCI registry, caching pulled trees.
type OCI struct {
	opts  OCIOptions
	cache *Dir
}

// NewOCI returns a registry resolver backed by a local cache.
func NewOCI(opts OCIOptions) (*OCI, error) {
	if opts.Registry == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required")
	}
	cache, err := NewDir(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	if opts.Pull == nil {
		opts.Pull = oci.Pull
	}
	return &OCI{opts: opts, cache: cache}, nil
}

// Repository returns the repository path a requirement is pulled from.
func (o *OCI) Repository(req recipe.Requirement) string {
	if o.opts.Namespace == "" {
		return req.Name
	}
	return path.Join(o.opts.Namespace, req.Name)
}

// Resolve pulls req unless it is already cached, then lists the cached tree.
// The pull lands in a scratch directory next to the cache entry and is
// renamed into place only on success, so a failed pull leaves no entry.
func (o *OCI) Resolve(ctx context.Context, req recipe.Requirement) (*ArtifactSet, error) {
	dest := o.cache.PathFor(req)
	if populated(dest) {
		slog.Debug("requirement already cached", "requirement", req.String(), "path", dest)
		return o.cache.Resolve(ctx, req)
	}

	slog.Info("pulling requirement",
		"requirement", req.String(),
		"registry", o.opts.Registry,
		"repository", o.Repository(req))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create cache directory", err)
	}
	tmp, err := os.MkdirTemp(filepath.Dir(dest), ".pull-*")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create pull directory", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	res, err := o.opts.Pull(ctx, oci.PullOptions{
		Registry:    o.opts.Registry,
		Repository:  o.Repository(req),
		Tag:         req.Version.String(),
		DestDir:     tmp,
		PlainHTTP:   o.opts.PlainHTTP,
		InsecureTLS: o.opts.InsecureTLS,
	})
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound, "failed to resolve requirement", err,
			map[string]any{"requirement": req.String(), "registry": o.opts.Registry})
	}

	// an empty leftover directory would block the rename
	_ = os.Remove(dest)
	if err := os.Rename(tmp, dest); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to move pulled requirement into cache", err,
			map[string]any{"requirement": req.String(), "path": dest})
	}

	slog.Info("requirement pulled", "requirement", req.String(), "digest", res.Digest)
	return o.cache.Resolve(ctx, req)
}
