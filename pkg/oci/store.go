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
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

// ArtifactType is the media type of published 6502dasm packages.
const ArtifactType = "application/vnd.dasm6502.package.v1"

// LayoutDirName is the OCI image layout directory created by Package.
const LayoutDirName = "oci-layout"

// PackageOptions configures local OCI packaging.
type PackageOptions struct {
	// SourceDir is the directory whose contents become the artifact layer.
	SourceDir string
	// OutputDir receives the OCI image layout (under LayoutDirName).
	OutputDir string
	// Registry and Repository name the artifact; they are validated but not contacted.
	Registry   string
	Repository string
	// Tag tags the manifest in the layout.
	Tag string
	// Annotations are added to the manifest. The title annotation is rejected
	// since the file store would write the manifest into SourceDir under it.
	Annotations map[string]string
}

// PackageResult is the outcome of Package.
type PackageResult struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	StorePath string `json:"storePath" yaml:"storePath"`
}

// PushOptions configures pushing to a remote registry.
type PushOptions struct {
	Registry    string
	Repository  string
	Tag         string
	PlainHTTP   bool
	InsecureTLS bool
}

// PushResult is the outcome of a push.
type PushResult struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
}

// PullOptions configures pulling an artifact from a remote registry.
type PullOptions struct {
	Registry    string
	Repository  string
	Tag         string
	DestDir     string
	PlainHTTP   bool
	InsecureTLS bool
}

// PullResult is the outcome of a pull.
type PullResult struct {
	Digest  string
	DestDir string
}

// Package writes SourceDir as a single gzip layer into an OCI image layout
// under OutputDir and tags the manifest.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	switch {
	case opts.Tag == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	case opts.Registry == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required for OCI packaging")
	case opts.Repository == "":
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "repository is required for OCI packaging")
	}
	if _, ok := opts.Annotations[ociv1.AnnotationTitle]; ok {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"title annotation is not allowed on packaged manifests",
			map[string]any{"annotation": ociv1.AnnotationTitle})
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}

	absSource, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve source directory", err)
	}
	storePath, err := filepath.Abs(filepath.Join(opts.OutputDir, LayoutDirName))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve output directory", err)
	}

	fs, err := file.New(absSource)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	// deterministic tars
	fs.TarReproducible = true

	layer, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absSource)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to add source directory to store", err)
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: opts.Annotations,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if err := fs.Tag(ctx, manifest, opts.Tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in file store", err)
	}

	layout, err := oci.New(storePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create OCI layout", err)
	}
	desc, err := oras.Copy(ctx, fs, opts.Tag, layout, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write OCI layout", err)
	}

	return &PackageResult{
		Digest:    desc.Digest.String(),
		Reference: fmt.Sprintf("%s/%s:%s", stripProtocol(opts.Registry), opts.Repository, opts.Tag),
		StorePath: storePath,
	}, nil
}

// PushFromStore pushes the tagged manifest of an OCI layout to a registry.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	if opts.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}

	layout, err := oci.New(storePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, "failed to open OCI layout", err)
	}

	repo, err := newRepository(opts.Registry, opts.Repository, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}

	desc, err := oras.Copy(ctx, layout, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: fmt.Sprintf("%s/%s:%s", stripProtocol(opts.Registry), opts.Repository, opts.Tag),
	}, nil
}

// Pull copies a tagged artifact from a registry and unpacks its layers into DestDir.
func Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	if opts.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to pull OCI artifact")
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}
	repo, err := newRepository(opts.Registry, opts.Repository, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}
	return copyToDir(ctx, repo, opts.Tag, opts.DestDir)
}

// PullFromStore unpacks a tagged artifact from a local OCI layout into destDir.
func PullFromStore(ctx context.Context, storePath, tag, destDir string) (*PullResult, error) {
	layout, err := oci.NewFromFS(ctx, os.DirFS(storePath))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, "failed to open OCI layout", err)
	}
	return copyToDir(ctx, layout, tag, destDir)
}

func copyToDir(ctx context.Context, src oras.ReadOnlyTarget, tag, destDir string) (*PullResult, error) {
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve destination directory", err)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create destination directory", err)
	}

	fs, err := file.New(absDest)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	desc, err := oras.Copy(ctx, src, tag, fs, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound, "failed to pull OCI artifact", err,
			map[string]any{"tag": tag})
	}
	return &PullResult{Digest: desc.Digest.String(), DestDir: absDest}, nil
}

func newRepository(registry, repository string, plainHTTP, insecureTLS bool) (*remote.Repository, error) {
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", stripProtocol(registry), repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = plainHTTP
	repo.Client = createAuthClient(plainHTTP, insecureTLS)
	return repo, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: defaults.HTTPTLSHandshakeTimeout}).DialContext
	transport.TLSHandshakeTimeout = defaults.HTTPTLSHandshakeTimeout
	transport.ResponseHeaderTimeout = defaults.HTTPResponseHeaderTimeout
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport, Timeout: defaults.HTTPClientTimeout},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
