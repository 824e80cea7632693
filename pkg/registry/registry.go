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

// Package registry tracks every open buffer of a project without keeping
// any of them alive on its own: entries hold a weak.Pointer to the buffer,
// so the registry never outlives the last strong reference a caller holds,
// and a second open of the same file finds and reuses the live buffer
// instead of reading the file twice.
package registry

import (
	"sync"
	"weak"

	"github.com/kraklabs/projectcore/pkg/buffer"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

type entry struct {
	ptr    weak.Pointer[buffer.Buffer]
	fileID vfs.FileID
	hasFile bool
}

// Registry maps buffer ids and file ids to weakly-held buffers. The id
// allocator itself belongs to the project that owns a registry, not to
// the registry: Insert takes an already-allocated id.
type Registry struct {
	mu     sync.Mutex
	byID   map[buffer.ID]entry
	byFile map[vfs.FileID]buffer.ID
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[buffer.ID]entry),
		byFile: make(map[vfs.FileID]buffer.ID),
	}
}

// Insert records a weak reference to buf under the already-allocated id,
// and — if buf is bound to a file — indexes it by that file's id so a
// later open of the same file can find it. The caller retains the only
// strong reference; the registry never keeps buf alive by itself.
// Invariant 2 (at most one live buffer per BufferId) must hold on entry;
// Insert does not check it.
func (r *Registry) Insert(id buffer.ID, buf *buffer.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := entry{ptr: weak.Make(buf)}
	if fileID, ok := buf.FileID(); ok {
		e.fileID = fileID
		e.hasFile = true
		r.byFile[fileID] = id
	}
	r.byID[id] = e
}

// FindByID returns the live buffer for id, if it still exists and has not
// been garbage collected. A dead entry is evicted from both indexes.
func (r *Registry) FindByID(id buffer.ID) (*buffer.Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByIDLocked(id)
}

func (r *Registry) findByIDLocked(id buffer.ID) (*buffer.Buffer, bool) {
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	buf := e.ptr.Value()
	if buf == nil {
		r.evictLocked(id, e)
		return nil, false
	}
	return buf, true
}

// FindByFile returns the live buffer currently open on fileID, if any. This
// is the check half of the check-read-recheck-insert protocol local
// projects use to deduplicate concurrent opens of the same file.
func (r *Registry) FindByFile(fileID vfs.FileID) (*buffer.Buffer, buffer.ID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byFile[fileID]
	if !ok {
		return nil, 0, false
	}
	buf, ok := r.findByIDLocked(id)
	if !ok {
		delete(r.byFile, fileID)
		return nil, 0, false
	}
	return buf, id, true
}

func (r *Registry) evictLocked(id buffer.ID, e entry) {
	delete(r.byID, id)
	if e.hasFile {
		if cur, ok := r.byFile[e.fileID]; ok && cur == id {
			delete(r.byFile, e.fileID)
		}
	}
}

// Len reports the number of entries the registry currently tracks,
// including any that have gone dead but have not yet been looked up (and
// therefore not yet evicted). Intended for tests and diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
