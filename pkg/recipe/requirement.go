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

package recipe

import (
	"fmt"
	"strings"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe/version"
)

// Requirement is an upstream dependency identified by name and version.
// It is a value type; the descriptor hands out copies.
type Requirement struct {
	Name    string          `json:"name" yaml:"name"`
	Version version.Version `json:"version" yaml:"version"`
}

// ParseRequirement parses a "name/version" reference such as "etl/20.24.1".
func ParseRequirement(ref string) (Requirement, error) {
	name, ver, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || name == "" || ver == "" {
		return Requirement{}, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid requirement reference %q (expected name/version)", ref),
			map[string]any{"reference": ref})
	}
	v, err := version.Parse(ver)
	if err != nil {
		return Requirement{}, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid version in requirement %q", ref), err,
			map[string]any{"reference": ref})
	}
	return Requirement{Name: name, Version: v}, nil
}

// MustParseRequirement parses ref and panics on error. Use only for literals.
func MustParseRequirement(ref string) Requirement {
	r, err := ParseRequirement(ref)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the "name/version" reference.
func (r Requirement) String() string {
	return r.Name + "/" + r.Version.String()
}
