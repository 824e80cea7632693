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

package project

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
	"github.com/kraklabs/projectcore/pkg/rpcconn"
	"github.com/kraklabs/projectcore/pkg/search"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// netPipe returns two ends of an in-memory, full-duplex net.Conn, used to
// exercise WireConnection without a real socket.
func netPipe(t *testing.T) (io.ReadWriteCloser, io.ReadWriteCloser) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

// buildTwoRepoFixture builds the two-tree fixture spec.md scenario 4 uses:
// repo 0 at /foo with subdir-a/{file-1, subdir-1/{file-1, bar}}, repo 1 at
// /bar with subdir-b/subdir-2/{file-3, foo}.
func buildTwoRepoFixture(provider *vfs.MemoryFileProvider) (fooTree, barTree *vfs.MemoryTree) {
	fooTree = vfs.BuildMemoryTree("/foo", vfs.Dir("foo", false,
		vfs.Dir("subdir-a", false,
			vfs.File("file-1", false),
			vfs.Dir("subdir-1", false,
				vfs.File("file-1", false),
				vfs.File("bar", false),
			),
		),
	))
	barTree = vfs.BuildMemoryTree("/bar", vfs.Dir("bar", false,
		vfs.Dir("subdir-b", false,
			vfs.Dir("subdir-2", false,
				vfs.File("file-3", false),
				vfs.File("foo", false),
			),
		),
	))
	provider.Write("/foo/subdir-a/file-1", "a")
	provider.Write("/foo/subdir-a/subdir-1/file-1", "b")
	provider.Write("/foo/subdir-a/subdir-1/bar", "c")
	provider.Write("/bar/subdir-b/subdir-2/file-3", "d")
	provider.Write("/bar/subdir-b/subdir-2/foo", "e")
	return fooTree, barTree
}

func pollToReady(t *testing.T, s *search.Search, obs *search.Observer) []search.Result {
	t.Helper()
	s.Poll()
	status := obs.Status()
	if !status.Ready {
		t.Fatalf("expected search to be ready after one poll")
	}
	return status.Results
}

// TestRemoteLocalSearchEquivalence pins down spec scenario 5: a remote
// project's search results equal a local project's, and opening the top
// remote result yields a buffer with the same content as opening the same
// path locally.
func TestRemoteLocalSearchEquivalence(t *testing.T) {
	provider := vfs.NewMemoryFileProvider()
	fooTree, barTree := buildTwoRepoFixture(provider)

	local := NewLocalProject(provider, nil)
	fooID := local.RegisterTree(fooTree)
	barID := local.RegisterTree(barTree)
	_ = fooID
	_ = barID

	serverConn, clientConn := rpcconn.NewPair()
	svc := NewService(serverConn, local)
	svcID := serverConn.AddService(svc)

	ctx := context.Background()
	remote, err := NewRemoteProject(ctx, clientConn, svcID, nil)
	require.NoError(t, err)

	localSearch, localObs := local.SearchPaths("bar", 10, true)
	remoteSearch, remoteObs := remote.SearchPaths("bar", 10, true)

	localResults := pollToReady(t, localSearch, localObs)
	remoteResults := pollToReady(t, remoteSearch, remoteObs)

	require.Equal(t, localResults, remoteResults)
	require.NotEmpty(t, localResults)

	top := localResults[0]
	localBuf, err := local.OpenPath(ctx, top.RepoID, top.RelativePath)
	require.NoError(t, err)

	remoteBuf, err := remote.OpenPath(ctx, top.RepoID, top.RelativePath)
	require.NoError(t, err)

	require.Equal(t, localBuf.String(), remoteBuf.String())
}

// TestRemoteOpenUnknownRepoSurfacesTreeNotFound checks that an application
// error from the underlying local project crosses the wire unchanged.
func TestRemoteOpenUnknownRepoSurfacesTreeNotFound(t *testing.T) {
	provider := vfs.NewMemoryFileProvider()
	local := NewLocalProject(provider, nil)

	serverConn, clientConn := rpcconn.NewPair()
	svc := NewService(serverConn, local)
	svcID := serverConn.AddService(svc)

	ctx := context.Background()
	remote, err := NewRemoteProject(ctx, clientConn, svcID, nil)
	require.NoError(t, err)

	_, err = remote.OpenPath(ctx, 42, "whatever")
	require.True(t, projecterr.Is(err, projecterr.KindTreeNotFound), "got %v, want TreeNotFound", err)
}

// TestRemoteOverWireConnection exercises the same replication scenario
// over a real WireConnection (an in-process net.Pipe) instead of the
// in-process Connection pair, proving pkg/project is not coupled to the
// in-process substrate.
func TestRemoteOverWireConnection(t *testing.T) {
	provider := vfs.NewMemoryFileProvider()
	provider.Write("/repo/file", "hello")
	tree := vfs.BuildMemoryTree("/repo", vfs.Dir("repo", false, vfs.File("file", false)))

	local := NewLocalProject(provider, nil)
	repoID := local.RegisterTree(tree)

	serverSide, clientSide := netPipe(t)
	serverConn := rpcconn.NewWireConnection(serverSide)
	clientConn := rpcconn.NewWireConnection(clientSide)

	svc := NewService(serverConn, local)
	svcID := serverConn.AddService(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remote, err := NewRemoteProject(ctx, clientConn, svcID, nil)
	require.NoError(t, err)

	buf, err := remote.OpenPath(ctx, repoID, "file")
	require.NoError(t, err)
	require.Equal(t, "hello", buf.String())
}
