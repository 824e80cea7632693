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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/internal/ui"
)

// runSearch runs a fuzzy path search over every repo the project serves
// and prints the ranked results, highlighting the matched characters in
// each display path.
func runSearch(args []string, g globals) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	maxResults := fs.IntP("max-results", "n", 0, "Maximum results to return (default: project config)")
	includeIgnored := fs.Bool("include-ignored", false, "Include ignored entries whose name path already matched")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: projectd search [--max-results N] [--include-ignored] <needle>")
	}
	needle := fs.Arg(0)

	cfg, configDir, err := loadProjectConfig(g.ConfigPath, ".")
	if err != nil {
		return err
	}
	m := metrics.New()
	lp, _, err := buildLocalProject(cfg, configDir, m)
	if err != nil {
		return err
	}

	n := cfg.Search.MaxResults
	if *maxResults > 0 {
		n = *maxResults
	}
	include := cfg.Search.IncludeIgnored || *includeIgnored

	s, obs := lp.SearchPaths(needle, n, include)
	s.Poll()
	status := obs.Status()

	p := ui.NewPrinter(os.Stdout, g.JSON, g.NoColor)
	p.Result(status.Results, func() string {
		out := ""
		for _, r := range status.Results {
			out += fmt.Sprintf("%6d  [%d] %s\n", r.Score, r.RepoID, ui.Highlight([]rune(r.DisplayPath), r.Positions, g.NoColor))
		}
		return out
	})
	return nil
}
