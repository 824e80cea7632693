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
	"encoding/json"
	"fmt"

	"github.com/kraklabs/projectcore/pkg/rpcconn"
)

// entrySnapshot is the wire shape of one tree entry, recursive over its
// children. A whole tree is snapshotted in one State call because trees
// are effectively read-only after construction (spec.md §5): there is no
// operation that changes a repository's entries once a project has opened
// it, so there is nothing for a remote tree to keep re-fetching.
type entrySnapshot struct {
	ID       EntryID         `json:"id"`
	Name     string          `json:"name"`
	Dir      bool            `json:"dir"`
	Ignored  bool            `json:"ignored"`
	Children []entrySnapshot `json:"children,omitempty"`
}

func snapshotEntry(e Entry) (entrySnapshot, error) {
	s := entrySnapshot{ID: e.ID(), Name: e.Name(), Dir: e.IsDir(), Ignored: e.IsIgnored()}
	if !e.IsDir() {
		return s, nil
	}
	children, err := e.Children()
	if err != nil {
		return s, fmt.Errorf("vfs: snapshotting children of %s: %w", e.ID(), err)
	}
	s.Children = make([]entrySnapshot, 0, len(children))
	for _, c := range children {
		cs, err := snapshotEntry(c)
		if err != nil {
			return s, err
		}
		s.Children = append(s.Children, cs)
	}
	return s, nil
}

func (s entrySnapshot) toMemoryEntry() *MemoryEntry {
	e := &MemoryEntry{IDValue: s.ID, NameValue: s.Name, Dir: s.Dir, Ignored: s.Ignored}
	if len(s.Children) > 0 {
		e.ChildrenValue = make([]*MemoryEntry, len(s.Children))
		for i, c := range s.Children {
			e.ChildrenValue[i] = c.toMemoryEntry()
		}
	}
	return e
}

// TreeService exposes a LocalTree as an rpcconn.Handler: its State is the
// whole tree, snapshotted once per State call. It accepts no requests — a
// tree has no mutating operation in this specification.
type TreeService struct {
	tree LocalTree
}

// NewTreeService wraps tree as a connection sub-service.
func NewTreeService(tree LocalTree) *TreeService {
	return &TreeService{tree: tree}
}

func (s *TreeService) State(ctx context.Context) (json.RawMessage, error) {
	snap, err := snapshotEntry(s.tree.Root())
	if err != nil {
		return nil, err
	}
	return rpcconn.Encode(snap)
}

func (s *TreeService) HandleRequest(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return nil, fmt.Errorf("vfs: tree service accepts no requests")
}

// RemoteTree mirrors a tree published by a TreeService: a full, static
// snapshot of its entries fetched once at construction.
type RemoteTree struct {
	root *MemoryEntry
}

// NewRemoteTree fetches id's current state from conn and builds a
// RemoteTree from it.
func NewRemoteTree(ctx context.Context, conn rpcconn.Peer, id rpcconn.ServiceID) (*RemoteTree, error) {
	raw, err := conn.State(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("vfs: fetching remote tree: %w", err)
	}
	var snap entrySnapshot
	if err := rpcconn.DecodeInto(raw, &snap); err != nil {
		return nil, fmt.Errorf("vfs: decoding remote tree: %w", err)
	}
	return &RemoteTree{root: snap.toMemoryEntry()}, nil
}

func (t *RemoteTree) Root() Entry { return t.root }
