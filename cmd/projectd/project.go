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

package main

import (
	"fmt"
	"path/filepath"

	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/pkg/config"
	"github.com/kraklabs/projectcore/pkg/project"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// buildLocalProject registers every repo named in cfg as a LocalOSTree
// rooted at its absolute path (resolved relative to configDir, the
// directory that contains .workspace/), in configuration order, so repo ids
// are stable across invocations of the same config file.
func buildLocalProject(cfg *config.Config, configDir string, m *metrics.Collectors) (*project.LocalProject, map[vfs.RepositoryID]string, error) {
	ignored := map[string]bool{}
	if len(cfg.Ignored) > 0 {
		for _, name := range cfg.Ignored {
			ignored[name] = true
		}
	} else {
		ignored = vfs.DefaultIgnoredNames
	}

	lp := project.NewLocalProject(vfs.NewLocalFileProvider(), m)
	names := make(map[vfs.RepositoryID]string, len(cfg.Repos))
	for _, repo := range cfg.Repos {
		absPath := repo.Path
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(configDir, absPath)
		}
		absPath, err := filepath.Abs(absPath)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving repo %q: %w", repo.Name, err)
		}
		tree := vfs.NewLocalOSTree(absPath, ignored)
		id := lp.RegisterTree(tree)
		name := repo.Name
		if name == "" {
			name = filepath.Base(absPath)
		}
		names[id] = name
	}
	return lp, names, nil
}

// loadProjectConfig finds and loads project.yaml starting from dir,
// returning the config and the directory that contains its .workspace/
// directory (repo paths in the config are relative to that directory, not
// the caller's cwd).
func loadProjectConfig(explicitPath, startDir string) (*config.Config, string, error) {
	path := explicitPath
	if path == "" {
		found, err := config.Find(startDir)
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(filepath.Dir(path)), nil
}
