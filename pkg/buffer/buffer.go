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

// Package buffer implements the text buffer capability the project core
// depends on but leaves external in the source specification: an
// edit-capable in-memory document that can be bound to a file handle and
// remoted via its own small service. A full CRDT history engine is out of
// scope (see pkg/crdt); Buffer itself is a plain mutable document, with a
// NodeID slot reserved for that future extension.
package buffer

import (
	"sync"

	"github.com/kraklabs/projectcore/pkg/crdt"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// ID is the dense, non-negative, project-lifetime-stable identifier
// allocated to a buffer by the project that created it.
type ID uint64

// Buffer is a mutable in-memory text document, optionally bound to a file.
type Buffer struct {
	mu      sync.Mutex
	content []rune
	file    vfs.File
	nodeID  *crdt.OperationID
}

// New constructs an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// NewWithContent constructs a buffer whose initial content is text, applied
// as a single edit over the empty range — the shape every local_project
// open_path uses for a freshly read file.
func NewWithContent(text string) *Buffer {
	b := New()
	b.Edit(0, 0, text)
	return b
}

// Edit replaces the rune range [start, end) with text. Both start and end
// are rune offsets, not byte offsets.
func (b *Buffer) Edit(start, end int, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end > len(b.content) {
		end = len(b.content)
	}
	if end < start {
		end = start
	}
	replacement := []rune(text)
	next := make([]rune, 0, start+len(replacement)+(len(b.content)-end))
	next = append(next, b.content[:start]...)
	next = append(next, replacement...)
	next = append(next, b.content[end:]...)
	b.content = next
}

// SetFile binds the buffer to a file handle.
func (b *Buffer) SetFile(f vfs.File) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.file = f
}

// FileID returns the identity of the file this buffer is bound to, if any.
func (b *Buffer) FileID() (vfs.FileID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file == nil {
		return "", false
	}
	return b.file.ID(), true
}

// File returns the file handle this buffer is bound to, if any.
func (b *Buffer) File() (vfs.File, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file, b.file != nil
}

// SetNodeID reserves this buffer's place in a future collaborative history:
// the CRDT node this buffer's text content corresponds to, once a replica
// and operation log exist. Unused by anything in this module today.
func (b *Buffer) SetNodeID(id crdt.OperationID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodeID = &id
}

// String returns the buffer's current contents.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.content)
}

// Len returns the buffer's current length in runes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.content)
}
