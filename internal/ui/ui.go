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

// Package ui provides the small set of colorized, TTY-aware output helpers
// shared by every projectd subcommand.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether color output should be used for w, honoring
// NO_COLOR and an explicit --no-color flag.
func ColorEnabled(w *os.File, noColor bool) bool {
	if noColor {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

// Printer renders human or JSON output depending on a single mode switch,
// matching the --json flag every projectd subcommand exposes.
type Printer struct {
	JSON    bool
	NoColor bool
	out     io.Writer
}

// NewPrinter builds a Printer writing to out.
func NewPrinter(out io.Writer, asJSON, noColor bool) *Printer {
	return &Printer{JSON: asJSON, NoColor: noColor, out: out}
}

// Result prints v as pretty JSON when p.JSON is set, otherwise it calls
// render to obtain a human-readable line and prints that instead.
func (p *Printer) Result(v interface{}, render func() string) {
	if p.JSON {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Fprintln(p.out, render())
}

// Info prints a status line, colorized cyan unless disabled.
func (p *Printer) Info(format string, args ...interface{}) {
	if p.JSON {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p.NoColor {
		fmt.Fprintln(p.out, msg)
		return
	}
	fmt.Fprintln(p.out, color.CyanString(msg))
}

// Warn prints a warning line, colorized yellow unless disabled.
func (p *Printer) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.NoColor {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	fmt.Fprintln(os.Stderr, color.YellowString(msg))
}

// Highlight wraps the rune at each position in s with bold color, used to
// render fuzzy-match positions in a search result's display path.
func Highlight(s []rune, positions []int, noColor bool) string {
	if noColor {
		return string(s)
	}
	marked := make(map[int]bool, len(positions))
	for _, p := range positions {
		marked[p] = true
	}
	bold := color.New(color.Bold, color.FgGreen).SprintFunc()
	out := make([]byte, 0, len(s)*2)
	for i, r := range s {
		if marked[i] {
			out = append(out, []byte(bold(string(r)))...)
		} else {
			out = append(out, []byte(string(r))...)
		}
	}
	return string(out)
}
