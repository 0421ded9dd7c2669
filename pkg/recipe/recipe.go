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
	"path/filepath"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/recipe/version"
)

const (
	// ResourcesFolderName is the staging folder for dependency headers. The
	// import step writes into it and the exported include path points at it.
	ResourcesFolderName = "Resources"

	// HeaderPattern selects the files staged by the import step.
	HeaderPattern = "*.h"

	// DefineUseETL is exported to consumers when the ETL feature is enabled.
	DefineUseETL = "USE_ETL"

	// SolutionPath is the Visual Studio solution built on Windows.
	SolutionPath = `VisualStudio\6502dasm.sln`
)

// IncludeDirFor renders the exported include directory for a resource folder name.
// The path is relative to the consumer's package folder and uses Windows separators.
func IncludeDirFor(folder string) string {
	return `..\` + folder + `\include`
}

// Descriptor describes the 6502 disassembler package.
type Descriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Version     version.Version `json:"version" yaml:"version"`
	Author      string          `json:"author,omitempty" yaml:"author,omitempty"`
	License     string          `json:"license" yaml:"license"`
	URL         string          `json:"url,omitempty" yaml:"url,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Topics      []string        `json:"topics,omitempty" yaml:"topics,omitempty"`

	requirement Requirement
}

// Default returns the 6502dasm descriptor.
func Default() *Descriptor {
	return &Descriptor{
		Name:        "6502dasm",
		Version:     version.MustParse("1.0.0"),
		Author:      "Tom Aviv TomAviv57@gmail.com",
		License:     "",
		URL:         "https://github.com/ETLCPP/etl.git",
		Description: "C++ library to disassemble 6502 assembly",
		Topics:      []string{"6502", "disassembler", "library"},
		requirement: MustParseRequirement("etl/20.24.1"),
	}
}

// Reference returns "name/version" for the package itself.
func (d *Descriptor) Reference() string {
	return d.Name + "/" + d.Version.String()
}

// Requirements returns the declared upstream dependencies. There is exactly
// one, and it does not depend on any setting.
func (d *Descriptor) Requirements() []Requirement {
	return []Requirement{d.requirement}
}

// Validate checks settings and the declared metadata before any step runs.
func (d *Descriptor) Validate(s Settings) error {
	if d.Name == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "recipe name is empty")
	}
	if !d.Version.IsValid() {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("recipe %s has an invalid version", d.Name))
	}
	for _, r := range d.Requirements() {
		if r.Name == "" || !r.Version.IsValid() {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"invalid requirement", map[string]any{"requirement": r.String()})
		}
	}
	return s.Validate()
}

// PackageInfo holds the compiler metadata exported to dependent packages.
type PackageInfo struct {
	IncludeDirs []string `json:"includedirs" yaml:"includedirs"`
	Defines     []string `json:"defines" yaml:"defines"`
}

// PackageInfo computes the exported metadata. It is a pure function of the
// resource folder constant and the ETL setting.
func (d *Descriptor) PackageInfo(s Settings) PackageInfo {
	info := PackageInfo{
		IncludeDirs: []string{IncludeDirFor(ResourcesFolderName)},
		Defines:     []string{},
	}
	if s.UseETL {
		info.Defines = append(info.Defines, DefineUseETL)
	}
	return info
}

// Workspace pins the directories shared between steps to absolute paths.
type Workspace struct {
	// Root is the package build folder.
	Root string `json:"root" yaml:"root"`
	// ResourceDir is Root joined with ResourcesFolderName.
	ResourceDir string `json:"resourceDir" yaml:"resourceDir"`
	// SourceDir holds the native sources and the Visual Studio solution.
	SourceDir string `json:"sourceDir" yaml:"sourceDir"`
}

// NewWorkspace resolves root and sourceDir to absolute paths. An empty
// sourceDir defaults to root.
func NewWorkspace(root, sourceDir string) (*Workspace, error) {
	if root == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "workspace root is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve workspace root", err)
	}
	if sourceDir == "" {
		sourceDir = absRoot
	}
	absSrc, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve source directory", err)
	}
	return &Workspace{
		Root:        absRoot,
		ResourceDir: filepath.Join(absRoot, ResourcesFolderName),
		SourceDir:   absSrc,
	}, nil
}

// IncludeDir is the absolute include directory inside the resource folder.
func (w *Workspace) IncludeDir() string {
	return filepath.Join(w.ResourceDir, "include")
}
