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
	"os"
	"sort"

	"github.com/kraklabs/projectcore/internal/ui"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

type repoStatus struct {
	ID   vfs.RepositoryID `json:"id"`
	Name string           `json:"name"`
	Root string           `json:"root"`
}

func runStatus(args []string, g globals) error {
	cfg, configDir, err := loadProjectConfig(g.ConfigPath, ".")
	if err != nil {
		return err
	}
	lp, names, err := buildLocalProject(cfg, configDir, nil)
	if err != nil {
		return err
	}

	repos := lp.Repositories()
	ids := make([]vfs.RepositoryID, 0, len(repos))
	for id := range repos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	statuses := make([]repoStatus, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, repoStatus{ID: id, Name: names[id], Root: repos[id].RootPath()})
	}

	p := ui.NewPrinter(os.Stdout, g.JSON, g.NoColor)
	p.Result(statuses, func() string {
		out := fmt.Sprintf("%d repositories:\n", len(statuses))
		for _, s := range statuses {
			out += fmt.Sprintf("  [%d] %s -> %s\n", s.ID, s.Name, s.Root)
		}
		return out
	})
	return nil
}
