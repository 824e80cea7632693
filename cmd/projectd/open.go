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
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/internal/ui"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

type openResult struct {
	RepoID  vfs.RepositoryID `json:"repo_id"`
	Path    string           `json:"path"`
	Content string           `json:"content"`
}

// runOpen opens <repo-id> <relative-path> against the configured project
// and prints the resulting buffer's content.
func runOpen(args []string, g globals) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: projectd open <repo-id> <relative-path>")
	}
	repoID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid repo id %q: %w", args[0], err)
	}
	relPath := args[1]

	cfg, configDir, err := loadProjectConfig(g.ConfigPath, ".")
	if err != nil {
		return err
	}
	m := metrics.New()
	lp, _, err := buildLocalProject(cfg, configDir, m)
	if err != nil {
		return err
	}

	buf, err := lp.OpenPath(context.Background(), vfs.RepositoryID(repoID), relPath)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout, g.JSON, g.NoColor)
	result := openResult{RepoID: vfs.RepositoryID(repoID), Path: relPath, Content: buf.String()}
	p.Result(result, func() string { return buf.String() })
	return nil
}
