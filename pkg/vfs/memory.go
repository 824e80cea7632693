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
	"path/filepath"
	"sync"
)

// MemoryEntry is an in-memory Entry, used by tests to build fixed tree
// shapes without touching the filesystem (mirroring the teacher's own
// preference for small in-memory fixtures over golden files) and by
// RemoteTree to hold a snapshot of a tree mirrored from a project service.
type MemoryEntry struct {
	IDValue       EntryID
	NameValue     string
	Dir           bool
	Ignored       bool
	ChildrenValue []*MemoryEntry
}

func (e *MemoryEntry) ID() EntryID   { return e.IDValue }
func (e *MemoryEntry) Name() string  { return e.NameValue }
func (e *MemoryEntry) IsDir() bool   { return e.Dir }
func (e *MemoryEntry) IsIgnored() bool { return e.Ignored }

func (e *MemoryEntry) MatchChars() []rune {
	if e.Dir {
		return []rune(e.NameValue + "/")
	}
	return []rune(e.NameValue)
}

func (e *MemoryEntry) Children() ([]Entry, error) {
	children := make([]Entry, len(e.ChildrenValue))
	for i, c := range e.ChildrenValue {
		children[i] = c
	}
	return children, nil
}

// MemoryTree is a Tree built entirely from MemoryEntry fixtures.
type MemoryTree struct {
	rootPath string
	root     *MemoryEntry
}

func (t *MemoryTree) Root() Entry      { return t.root }
func (t *MemoryTree) RootPath() string { return t.rootPath }

// Dir builds a directory fixture node; id defaults to its name joined under
// its eventual parent by BuildMemoryTree.
func Dir(name string, ignored bool, children ...*MemoryEntry) *MemoryEntry {
	return &MemoryEntry{NameValue: name, Dir: true, Ignored: ignored, ChildrenValue: children}
}

// File builds a file fixture node.
func File(name string, ignored bool) *MemoryEntry {
	return &MemoryEntry{NameValue: name, Dir: false, Ignored: ignored}
}

// BuildMemoryTree assigns stable, path-based entry ids across a fixture
// built with Dir/File and wraps it as a LocalTree rooted at rootPath.
func BuildMemoryTree(rootPath string, root *MemoryEntry) *MemoryTree {
	assignIDs(root, "")
	return &MemoryTree{rootPath: rootPath, root: root}
}

func assignIDs(e *MemoryEntry, parentID string) {
	id := parentID + "/" + e.NameValue
	e.IDValue = EntryID(id)
	for _, c := range e.ChildrenValue {
		assignIDs(c, id)
	}
}

// MemoryFileProvider is an in-memory FileProvider backed by a map from
// absolute path to contents, for tests that need to control disk state
// precisely (including rewriting "disk" contents between opens).
type MemoryFileProvider struct {
	mu       sync.Mutex
	contents map[string]string
}

// NewMemoryFileProvider builds an empty in-memory FileProvider.
func NewMemoryFileProvider() *MemoryFileProvider {
	return &MemoryFileProvider{contents: make(map[string]string)}
}

// Write sets the current contents of absPath, as if written to disk.
func (p *MemoryFileProvider) Write(absPath, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contents[filepath.Clean(absPath)] = content
}

func (p *MemoryFileProvider) Open(ctx context.Context, absPath string) (File, error) {
	clean := filepath.Clean(absPath)
	p.mu.Lock()
	_, ok := p.contents[clean]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("vfs: no such file: %s", clean)
	}
	return &memoryFile{provider: p, path: clean}, nil
}

type memoryFile struct {
	provider *MemoryFileProvider
	path     string
}

func (f *memoryFile) ID() FileID  { return FileID(f.path) }
func (f *memoryFile) Path() string { return f.path }

func (f *memoryFile) Read(ctx context.Context) (string, error) {
	f.provider.mu.Lock()
	defer f.provider.mu.Unlock()
	content, ok := f.provider.contents[f.path]
	if !ok {
		return "", fmt.Errorf("vfs: no such file: %s", f.path)
	}
	return content, nil
}
