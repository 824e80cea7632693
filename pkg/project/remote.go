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
	"encoding/json"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/pkg/buffer"
	"github.com/kraklabs/projectcore/pkg/rpcconn"
	"github.com/kraklabs/projectcore/pkg/search"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// RemoteProject mirrors a LocalProject over an rpcconn.Peer: it holds a
// RemoteTree per repository (a static snapshot fetched at construction,
// since trees don't change shape for the lifetime of a project) and
// forwards every open to the peer's Service.
//
// RemoteProject does not implement the Project interface: its opens
// return *buffer.Remote, not *buffer.Buffer. The two buffer shapes really
// are different things — a local buffer edits in memory with no error
// return, a remote buffer's Edit is a network round trip that can fail —
// and Go's interfaces don't let a method's return type narrow across
// implementations the way a dynamically typed "future of Buffer" can. See
// DESIGN.md for this decision.
type RemoteProject struct {
	conn      rpcconn.Peer
	serviceID rpcconn.ServiceID
	trees     map[vfs.RepositoryID]vfs.Tree
	metrics   *metrics.Collectors
}

// NewRemoteProject fetches serviceID's State from conn (the {RepositoryId
// -> ServiceId} map a Service publishes) and mirrors every tree it names.
// m may be nil.
func NewRemoteProject(ctx context.Context, conn rpcconn.Peer, serviceID rpcconn.ServiceID, m *metrics.Collectors) (*RemoteProject, error) {
	raw, err := conn.State(ctx, serviceID)
	if err != nil {
		return nil, projecterr.NewRPCError(err)
	}
	var st State
	if err := rpcconn.DecodeInto(raw, &st); err != nil {
		return nil, projecterr.NewRPCError(err)
	}

	trees := make(map[vfs.RepositoryID]vfs.Tree, len(st.Repos))
	for repoID, treeSvcID := range st.Repos {
		rt, err := vfs.NewRemoteTree(ctx, conn, treeSvcID)
		if err != nil {
			return nil, projecterr.NewRPCError(err)
		}
		trees[repoID] = rt
	}
	return &RemoteProject{conn: conn, serviceID: serviceID, trees: trees, metrics: m}, nil
}

// OpenPath sends OpenPath{repoID, relativePath} and materializes the
// resulting buffer sub-service as a Remote mirror.
func (p *RemoteProject) OpenPath(ctx context.Context, repoID vfs.RepositoryID, relativePath string) (*buffer.Remote, error) {
	raw, err := p.conn.Request(ctx, p.serviceID, Request{
		Type:         "open_path",
		RepoID:       repoID,
		RelativePath: relativePath,
	})
	if err != nil {
		return nil, projecterr.NewRPCError(err)
	}
	return p.materialize(ctx, raw)
}

// OpenBuffer sends OpenBuffer{id} and materializes the resulting buffer
// sub-service as a Remote mirror.
func (p *RemoteProject) OpenBuffer(ctx context.Context, id buffer.ID) (*buffer.Remote, error) {
	raw, err := p.conn.Request(ctx, p.serviceID, Request{Type: "open_buffer", BufferID: id})
	if err != nil {
		return nil, projecterr.NewRPCError(err)
	}
	return p.materialize(ctx, raw)
}

func (p *RemoteProject) materialize(ctx context.Context, raw json.RawMessage) (*buffer.Remote, error) {
	var resp Response
	if err := rpcconn.DecodeInto(raw, &resp); err != nil {
		return nil, projecterr.NewRPCError(err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.ServiceID == nil {
		return nil, projecterr.NewUnexpectedResponse()
	}
	remote, err := buffer.OpenRemote(ctx, p.conn, *resp.ServiceID)
	if err != nil {
		return nil, projecterr.NewRPCError(err)
	}
	return remote, nil
}

// SearchPaths is identical in shape to LocalProject.SearchPaths, but walks
// the roots of the mirrored remote trees instead of local ones.
func (p *RemoteProject) SearchPaths(needle string, maxResults int, includeIgnored bool) (*search.Search, *search.Observer) {
	repoIDs := make([]vfs.RepositoryID, 0, len(p.trees))
	roots := make([]vfs.Entry, 0, len(p.trees))
	for id, tree := range p.trees {
		repoIDs = append(repoIDs, id)
		roots = append(roots, tree.Root())
	}
	sortReposByID(repoIDs, roots)
	return search.New(repoIDs, roots, needle, maxResults, includeIgnored, p.metrics)
}

// Repositories returns the repo ids this remote project mirrors, for
// administrative tooling.
func (p *RemoteProject) Repositories() []vfs.RepositoryID {
	ids := make([]vfs.RepositoryID, 0, len(p.trees))
	for id := range p.trees {
		ids = append(ids, id)
	}
	return ids
}
