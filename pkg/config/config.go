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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dasm6502/dasmpkg/pkg/builder"
	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/importer"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "DASMPKG_"

// Config is the merged tool configuration.
type Config struct {
	// OS and UseETL are kept as text so they can be validated; see Settings.
	OS     string `koanf:"os"`
	UseETL string `koanf:"use_etl"`

	Workspace string         `koanf:"workspace"`
	Source    string         `koanf:"source"`
	Cache     string         `koanf:"cache"`
	Log       LogConfig      `koanf:"log"`
	Registry  RegistryConfig `koanf:"registry"`
	Import    ImportConfig   `koanf:"import"`
	Build     BuildConfig    `koanf:"build"`

	// Settings is filled by Validate.
	Settings recipe.Settings `koanf:"-"`
}

// LogConfig sets the log level used when neither --log-level nor LOG_LEVEL is given.
type LogConfig struct {
	Level string `koanf:"level"`
}

// RegistryConfig points the requirement resolver at an OCI registry. An
// empty URL selects the local cache directory only.
type RegistryConfig struct {
	URL         string `koanf:"url"`
	Namespace   string `koanf:"namespace"`
	PlainHTTP   bool   `koanf:"plain_http"`
	InsecureTLS bool   `koanf:"insecure_tls"`
}

type ImportConfig struct {
	Pattern     string `koanf:"pattern"`
	EmptyPolicy string `koanf:"empty_policy"`
	Concurrency int    `koanf:"concurrency"`

	Policy importer.EmptyPolicy `koanf:"-"`
}

type BuildConfig struct {
	Tool          string        `koanf:"tool"`
	Solution      string        `koanf:"solution"`
	Configuration string        `koanf:"configuration"`
	Platform      string        `koanf:"platform"`
	Timeout       time.Duration `koanf:"timeout"`
}

func setDefaults(k *koanf.Koanf) {
	k.Set("os", string(recipe.OSLinux))
	k.Set("use_etl", "false")
	k.Set("workspace", ".")
	k.Set("source", "")
	k.Set("cache", ".dasmpkg/cache")
	k.Set("log.level", "info")
	k.Set("registry.url", "")
	k.Set("registry.namespace", "")
	k.Set("registry.plain_http", false)
	k.Set("registry.insecure_tls", false)
	k.Set("import.pattern", recipe.HeaderPattern)
	k.Set("import.empty_policy", string(importer.EmptyPolicyWarn))
	k.Set("import.concurrency", defaults.ImportConcurrency)
	k.Set("build.tool", builder.DefaultTool)
	k.Set("build.solution", recipe.SolutionPath)
	k.Set("build.configuration", "")
	k.Set("build.platform", "")
	k.Set("build.timeout", defaults.BuildTimeout.String())
}

// Load merges defaults, the optional YAML file at path and DASMPKG_*
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
				"failed to load config file", err, map[string]any{"path": path})
		}
	}

	known := k.Keys()
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKey(known, s)
	}), nil); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to load environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps DASMPKG_IMPORT_EMPTY_POLICY to import.empty_policy. Known
// keys are matched first so underscores inside a key survive; anything
// else splits on every underscore.
func envKey(known []string, name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, key := range known {
		if strings.ReplaceAll(key, ".", "_") == s {
			return key
		}
	}
	return strings.ReplaceAll(s, "_", ".")
}

// Validate parses the typed settings and checks ranges.
func (c *Config) Validate() error {
	osType, err := recipe.ParseOS(c.OS)
	if err != nil {
		return err
	}
	useETL, err := recipe.ParseFlag("use_etl", c.UseETL)
	if err != nil {
		return err
	}
	c.Settings = recipe.Settings{OS: osType, UseETL: useETL}

	policy, err := importer.ParseEmptyPolicy(c.Import.EmptyPolicy)
	if err != nil {
		return err
	}
	c.Import.Policy = policy

	if c.Import.Concurrency < 1 || c.Import.Concurrency > defaults.MaxImportConcurrency {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("import concurrency must be between 1 and %d", defaults.MaxImportConcurrency),
			map[string]any{"concurrency": c.Import.Concurrency})
	}
	if c.Build.Timeout <= 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"build timeout must be positive", map[string]any{"timeout": c.Build.Timeout.String()})
	}
	if c.Workspace == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "workspace is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"log level must be one of debug, info, warn, error", map[string]any{"level": c.Log.Level})
	}
	return nil
}

// ResolveWorkspace returns the absolute workspace for this configuration.
func (c *Config) ResolveWorkspace() (*recipe.Workspace, error) {
	return recipe.NewWorkspace(c.Workspace, c.Source)
}

// BuildOptions converts the build section into MSBuild options.
func (c *Config) BuildOptions() builder.Options {
	return builder.Options{
		Tool:          c.Build.Tool,
		Solution:      c.Build.Solution,
		Configuration: c.Build.Configuration,
		Platform:      c.Build.Platform,
	}
}

// ImportOptions converts the import section into importer options.
func (c *Config) ImportOptions() importer.Options {
	return importer.Options{
		Pattern:     c.Import.Pattern,
		Policy:      c.Import.Policy,
		Concurrency: c.Import.Concurrency,
	}
}
