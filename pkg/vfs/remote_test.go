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
	"testing"

	"github.com/kraklabs/projectcore/pkg/rpcconn"
)

func TestRemoteTreeMirrorsShapeAndIgnoredFlags(t *testing.T) {
	root := Dir("repo", false,
		File("a.txt", false),
		Dir(".git", true, File("config", false)),
	)
	tree := BuildMemoryTree("/repo", root)

	a, b := rpcconn.NewPair()
	id := a.AddService(NewTreeService(tree))

	remote, err := NewRemoteTree(context.Background(), b, id)
	if err != nil {
		t.Fatalf("NewRemoteTree: %v", err)
	}

	children, err := remote.Root().Children()
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}

	var gotGit bool
	for _, c := range children {
		if c.Name() == ".git" {
			gotGit = true
			if !c.IsIgnored() {
				t.Fatalf("expected .git to be marked ignored")
			}
			if !c.IsDir() {
				t.Fatalf("expected .git to be a directory")
			}
		}
	}
	if !gotGit {
		t.Fatalf("expected a .git entry in the mirrored tree")
	}
}

func TestTreeServiceRejectsRequests(t *testing.T) {
	root := Dir("repo", false, File("a.txt", false))
	tree := BuildMemoryTree("/repo", root)
	svc := NewTreeService(tree)

	if _, err := svc.HandleRequest(context.Background(), nil); err == nil {
		t.Fatalf("expected tree service to reject requests")
	}
}
