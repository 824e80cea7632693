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

// Package main implements projectd, the CLI over this module's project
// core: initializing a workspace config, opening paths/buffers, running
// fuzzy path searches, and serving a project to remote peers over RPC.
//
// Usage:
//
//	projectd init [path]             Create .workspace/project.yaml
//	projectd status [--json]         Show the repos a project serves
//	projectd open <repo> <path>      Open a path and print its contents
//	projectd search <needle>         Run a fuzzy path search
//	projectd serve [--listen addr]   Serve the project over RPC
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
)

// globals holds the flags every subcommand shares.
type globals struct {
	JSON       bool
	NoColor    bool
	ConfigPath string
}

func main() {
	var (
		jsonOutput = flag.Bool("json", false, "Output in JSON format")
		noColor    = flag.Bool("no-color", false, "Disable color output")
		configPath = flag.StringP("config", "c", "", "Path to .workspace/project.yaml (default: search upward from cwd)")
	)
	flag.SetInterspersed(false)
	flag.Usage = printUsage

	flag.Parse()

	g := globals{JSON: *jsonOutput, NoColor: *noColor, ConfigPath: *configPath}
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	var err error
	switch command {
	case "init":
		err = runInit(cmdArgs, g)
	case "status":
		err = runStatus(cmdArgs, g)
	case "open":
		err = runOpen(cmdArgs, g)
	case "search":
		err = runSearch(cmdArgs, g)
	case "serve":
		err = runServe(cmdArgs, g)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		projecterr.FatalError(err, g.JSON)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `projectd - collaborative editor project core CLI

Usage:
  projectd <command> [options]

Commands:
  init [path]               Create .workspace/project.yaml for path (default: cwd)
  status                    Show the repos the current project serves
  open <repo-id> <path>     Open a path and print the resulting buffer
  search <needle>           Run a fuzzy path search across every repo
  serve                     Serve the project to remote peers over RPC

Global options:
  --json            Output in JSON format
  --no-color        Disable color output (respects NO_COLOR)
  -c, --config      Path to .workspace/project.yaml

`)
}
