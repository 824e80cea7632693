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

package vfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultIgnoredNames are directory/file names treated as ignored when
// walking a local tree, mirroring the directories a source-aware tool
// conventionally skips (VCS metadata, dependency caches, build output).
var DefaultIgnoredNames = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"dist": true, "build": true, "bin": true,
}

// LocalOSTree lazily walks a directory rooted at RootPath using the OS
// filesystem. Entries are only enumerated when Children is called.
type LocalOSTree struct {
	rootPath string
	ignored  map[string]bool
	root     *localEntry
}

// NewLocalOSTree builds a LocalTree rooted at absRootPath. ignored may be
// nil to fall back to DefaultIgnoredNames.
func NewLocalOSTree(absRootPath string, ignored map[string]bool) *LocalOSTree {
	if ignored == nil {
		ignored = DefaultIgnoredNames
	}
	t := &LocalOSTree{rootPath: absRootPath, ignored: ignored}
	t.root = &localEntry{
		tree:     t,
		id:       EntryID(""),
		name:     filepath.Base(absRootPath),
		absPath:  absRootPath,
		isDir:    true,
		ignored:  false,
	}
	return t
}

func (t *LocalOSTree) Root() Entry     { return t.root }
func (t *LocalOSTree) RootPath() string { return t.rootPath }

type localEntry struct {
	tree    *LocalOSTree
	id      EntryID
	name    string
	absPath string
	isDir   bool
	ignored bool
}

func (e *localEntry) ID() EntryID   { return e.id }
func (e *localEntry) Name() string  { return e.name }
func (e *localEntry) IsDir() bool   { return e.isDir }
func (e *localEntry) IsIgnored() bool { return e.ignored }

func (e *localEntry) MatchChars() []rune {
	if e.isDir {
		return []rune(e.name + "/")
	}
	return []rune(e.name)
}

func (e *localEntry) Children() ([]Entry, error) {
	if !e.isDir {
		return nil, nil
	}
	dirEntries, err := os.ReadDir(e.absPath)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", e.absPath, err)
	}
	children := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		childID := EntryID(filepath.Join(string(e.id), de.Name()))
		children = append(children, &localEntry{
			tree:    e.tree,
			id:      childID,
			name:    de.Name(),
			absPath: filepath.Join(e.absPath, de.Name()),
			isDir:   de.IsDir(),
			ignored: e.tree.ignored[de.Name()],
		})
	}
	return children, nil
}

// LocalFileProvider opens files directly from the OS filesystem. The file
// identity is the cleaned absolute path: sufficient to satisfy "two
// handles describe the same file iff they share an identity" for paths
// that are not renamed while open, which is all this specification needs.
type LocalFileProvider struct{}

// NewLocalFileProvider builds an OS-backed FileProvider.
func NewLocalFileProvider() *LocalFileProvider { return &LocalFileProvider{} }

func (p *LocalFileProvider) Open(ctx context.Context, absPath string) (File, error) {
	clean := filepath.Clean(absPath)
	if _, err := os.Stat(clean); err != nil {
		return nil, err
	}
	return &localFile{path: clean}, nil
}

type localFile struct{ path string }

func (f *localFile) ID() FileID  { return FileID(f.path) }
func (f *localFile) Path() string { return f.path }

func (f *localFile) Read(ctx context.Context) (string, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
