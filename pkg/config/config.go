// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves .workspace/project.yaml, the projectd
// CLI's configuration file: the set of repositories a project serves, the
// directory/file names to treat as ignored, and the defaults a search or
// serve invocation falls back to when a flag isn't given.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
)

const (
	// DirName is the directory a project's configuration lives under,
	// relative to the project's working directory.
	DirName = ".workspace"
	// FileName is the configuration file's name within DirName.
	FileName    = "project.yaml"
	fileVersion = "1"
)

// Repo names one repository a project serves: a path (relative to the
// directory that contains DirName, or absolute) plus a display name used as the
// root's name when multiple repos are registered.
type Repo struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// SearchDefaults holds the parameters `projectd search` falls back to when
// not given explicitly on the command line.
type SearchDefaults struct {
	MaxResults     int  `yaml:"max_results"`
	IncludeIgnored bool `yaml:"include_ignored"`
}

// Config is the shape of .workspace/project.yaml.
type Config struct {
	Version string   `yaml:"version"`
	Repos   []Repo   `yaml:"repos"`
	Ignored []string `yaml:"ignored,omitempty"`
	Search  SearchDefaults `yaml:"search"`
	Listen  string   `yaml:"listen,omitempty"` // projectd serve's default bind address
}

// Default returns a single-repo configuration rooted at the current
// directory, the shape `projectd init` writes with no arguments.
func Default(rootName string) *Config {
	return &Config{
		Version: fileVersion,
		Repos:   []Repo{{Name: rootName, Path: "."}},
		Search: SearchDefaults{
			MaxResults:     20,
			IncludeIgnored: false,
		},
		Listen: "127.0.0.1:7777",
	}
}

// Path returns the project.yaml path under dir.
func Path(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// Find walks upward from startDir looking for .workspace/project.yaml,
// mirroring the teacher's own upward config search.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", projecterr.NewConfigError("resolving search start directory", err)
	}
	for {
		candidate := Path(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", projecterr.NewConfigError(fmt.Sprintf("no %s/%s found above %s", DirName, FileName, startDir), nil)
		}
		dir = parent
	}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, projecterr.NewConfigError(fmt.Sprintf("reading %s", path), err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, projecterr.NewConfigError(fmt.Sprintf("parsing %s", path), err)
	}
	if cfg.Version != fileVersion {
		return nil, projecterr.NewConfigError(fmt.Sprintf("unsupported config version %q in %s (expected %q)", cfg.Version, path, fileVersion), nil)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating its directory if needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return projecterr.NewConfigError("encoding configuration", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return projecterr.NewConfigError(fmt.Sprintf("creating %s", filepath.Dir(path)), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return projecterr.NewConfigError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
