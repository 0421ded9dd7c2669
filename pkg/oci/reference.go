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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

// URIScheme is the URI scheme for OCI registry targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// Reference is a parsed OCI registry target.
type Reference struct {
	// Registry is the registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "dasm6502/6502dasm").
	Repository string
	// Tag is the image tag. Empty means the caller applies a default.
	Tag string
}

// IsOCIURI reports whether target uses the oci:// scheme.
func IsOCIURI(target string) bool {
	return strings.HasPrefix(target, URIScheme)
}

// ParseReference parses an oci://registry/repository[:tag] URI.
func ParseReference(target string) (*Reference, error) {
	if !IsOCIURI(target) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("OCI reference must start with %s", URIScheme),
			map[string]any{"target": target})
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}

	r := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		r.Tag = tagged.Tag()
	}

	if err := ValidateRegistryReference(r.Registry, r.Repository); err != nil {
		return nil, err
	}
	return r, nil
}

// String returns "oci://registry/repository[:tag]".
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the given tag.
func (r *Reference) WithTag(tag string) *Reference {
	return &Reference{
		Registry:   r.Registry,
		Repository: r.Repository,
		Tag:        tag,
	}
}

// ValidateRegistryReference checks that registry and repository form a valid
// image name. A leading http:// or https:// on the registry is ignored.
func ValidateRegistryReference(registry, repository string) error {
	host := stripProtocol(registry)
	if host == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required")
	}
	if repository == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "repository is required")
	}
	name := host + "/" + repository
	if _, err := reference.ParseNamed(name); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"reference": name})
	}
	return nil
}

// stripProtocol removes http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}
