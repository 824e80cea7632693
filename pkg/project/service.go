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
	"fmt"
	"sort"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
	"github.com/kraklabs/projectcore/pkg/buffer"
	"github.com/kraklabs/projectcore/pkg/rpcconn"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// State is the wire shape a client fetches on attaching to a Service: the
// set of this project's repositories and the sub-service id each one's
// tree was published under.
type State struct {
	Repos map[vfs.RepositoryID]rpcconn.ServiceID `json:"repos"`
}

// Request is the wire shape of the two operations a remote project can ask
// a Service to perform on its underlying local project.
type Request struct {
	Type         string           `json:"type"` // "open_path" | "open_buffer"
	RepoID       vfs.RepositoryID `json:"repo_id,omitempty"`
	RelativePath string           `json:"relative_path,omitempty"`
	BufferID     buffer.ID        `json:"buffer_id,omitempty"`
}

// Response is the wire shape of OpenedBuffer: on success, the sub-service
// id the newly opened buffer was published under; on failure, the
// application error.
type Response struct {
	ServiceID *rpcconn.ServiceID `json:"service_id,omitempty"`
	Error     *projecterr.Error  `json:"error,omitempty"`
}

// Service is the server-side adapter that exposes a LocalProject over an
// rpcconn.Peer: it publishes one sub-service per tree at construction, and
// dispatches OpenPath/OpenBuffer requests to the underlying project,
// wrapping each resulting buffer as a further sub-service.
type Service struct {
	conn  rpcconn.Peer
	local *LocalProject
	state State
}

// NewService registers a tree sub-service for every repository local
// currently holds and returns a Service ready to be registered itself
// (conn.AddService(svc)) so a client can reach it.
func NewService(conn rpcconn.Peer, local *LocalProject) *Service {
	repos := local.Repositories()
	ids := make([]vfs.RepositoryID, 0, len(repos))
	for id := range repos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	state := State{Repos: make(map[vfs.RepositoryID]rpcconn.ServiceID, len(repos))}
	for _, id := range ids {
		svcID := conn.AddService(vfs.NewTreeService(repos[id]))
		state.Repos[id] = svcID
	}
	return &Service{conn: conn, local: local, state: state}
}

// State returns the {RepositoryId -> ServiceId} map built at construction.
// There is no out-of-band update in this version, so this never changes
// after NewService returns.
func (s *Service) State(ctx context.Context) (json.RawMessage, error) {
	return rpcconn.Encode(s.state)
}

// PollUpdate always reports that nothing is ready: this version of the
// protocol has no asynchronous updates to publish.
func (s *Service) PollUpdate(ctx context.Context) (ready bool, err error) {
	return false, nil
}

// HandleRequest dispatches OpenPath/OpenBuffer to the local project. This
// method itself never fails — an application-level failure is encoded in
// the Response; a transport-level failure is the connection's concern.
func (s *Service) HandleRequest(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req Request
	if err := rpcconn.DecodeInto(payload, &req); err != nil {
		return rpcconn.Encode(Response{Error: projecterr.NewRPCError(fmt.Errorf("project: decoding request: %w", err))})
	}

	var (
		buf *buffer.Buffer
		err error
	)
	switch req.Type {
	case "open_path":
		buf, err = s.local.OpenPath(ctx, req.RepoID, req.RelativePath)
	case "open_buffer":
		buf, err = s.local.OpenBuffer(ctx, req.BufferID)
	default:
		err = projecterr.NewUnexpectedResponse()
	}

	if err != nil {
		pe, ok := err.(*projecterr.Error)
		if !ok {
			pe = projecterr.NewIOError(err)
		}
		return rpcconn.Encode(Response{Error: pe})
	}

	svcID := s.conn.AddService(buffer.NewService(buf))
	return rpcconn.Encode(Response{ServiceID: &svcID})
}
