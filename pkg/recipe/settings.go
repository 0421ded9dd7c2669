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
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
)

// OSType is the operating system setting the recipe branches on.
type OSType string

// Recognized operating system settings.
const (
	OSWindows OSType = "Windows"
	OSLinux   OSType = "Linux"
	OSMacos   OSType = "Macos"
	OSFreeBSD OSType = "FreeBSD"
	OSSunOS   OSType = "SunOS"
	OSAndroid OSType = "Android"
	OSiOS     OSType = "iOS"
)

var knownOS = []OSType{OSWindows, OSLinux, OSMacos, OSFreeBSD, OSSunOS, OSAndroid, OSiOS}

var foldCaser = cases.Fold()

// String returns the string representation of the OSType.
func (o OSType) String() string {
	return string(o)
}

// IsValid reports whether o is a recognized operating system setting.
func (o OSType) IsValid() bool {
	return slices.Contains(knownOS, o)
}

// SupportedOSTypes returns the recognized operating system settings.
func SupportedOSTypes() []string {
	out := make([]string, 0, len(knownOS))
	for _, o := range knownOS {
		out = append(out, o.String())
	}
	return out
}

// ParseOS matches s case-insensitively against the recognized settings and
// returns the canonical spelling ("windows" → "Windows").
func ParseOS(s string) (OSType, error) {
	folded := foldCaser.String(strings.TrimSpace(s))
	for _, o := range knownOS {
		if foldCaser.String(string(o)) == folded {
			return o, nil
		}
	}
	return "", apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
		fmt.Sprintf("unsupported os setting %q (supported values: %s)", s, strings.Join(SupportedOSTypes(), ", ")),
		map[string]any{"os": s})
}

// ParseFlag parses an explicit boolean setting. Besides the strconv forms it
// accepts yes/no and on/off. An empty value means false.
func ParseFlag(name, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid value %q for setting %s", s, name), err,
			map[string]any{"setting": name})
	}
	return b, nil
}

// Settings are the recipe inputs the driver supplies per invocation.
// UseETL is a declared option; it is never read from an open-ended attribute bag.
type Settings struct {
	OS     OSType `json:"os" yaml:"os"`
	UseETL bool   `json:"useEtl" yaml:"useEtl"`
}

// Validate checks that every setting holds a recognized value.
func (s Settings) Validate() error {
	if !s.OS.IsValid() {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported os setting %q (supported values: %s)", s.OS, strings.Join(SupportedOSTypes(), ", ")),
			map[string]any{"os": string(s.OS)})
	}
	return nil
}
