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

package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kraklabs/projectcore/pkg/rpcconn"
)

// snapshot is the wire shape for a buffer's content, used both as the
// service's State and as the response to every edit request.
type snapshot struct {
	Content string `json:"content"`
	FileID  string `json:"file_id,omitempty"`
}

func (b *Buffer) snapshot() snapshot {
	s := snapshot{Content: b.String()}
	if id, ok := b.FileID(); ok {
		s.FileID = string(id)
	}
	return s
}

// editRequest is the wire shape of a buffer edit sent over a connection.
type editRequest struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Service wraps a Buffer as an rpcconn.Handler: a sub-service a project
// service can register per open buffer so a remote project can mirror and
// edit that buffer without sharing memory with it.
type Service struct {
	buf *Buffer
}

// NewService wraps buf as a connection sub-service.
func NewService(buf *Buffer) *Service {
	return &Service{buf: buf}
}

func (s *Service) State(ctx context.Context) (json.RawMessage, error) {
	return rpcconn.Encode(s.buf.snapshot())
}

func (s *Service) HandleRequest(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req editRequest
	if err := rpcconn.DecodeInto(payload, &req); err != nil {
		return nil, fmt.Errorf("buffer: decoding edit request: %w", err)
	}
	s.buf.Edit(req.Start, req.End, req.Text)
	return rpcconn.Encode(s.buf.snapshot())
}

// Remote mirrors a buffer hosted on the other side of a connection: its
// content is a local snapshot, refreshed each time Edit is called, so reads
// never incur a round trip but writes always do.
type Remote struct {
	mu     sync.Mutex
	conn   rpcconn.Peer
	id     rpcconn.ServiceID
	mirror *Buffer
}

// OpenRemote fetches id's current state from conn and builds a Remote
// mirror for it.
func OpenRemote(ctx context.Context, conn rpcconn.Peer, id rpcconn.ServiceID) (*Remote, error) {
	raw, err := conn.State(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("buffer: fetching remote state: %w", err)
	}
	var snap snapshot
	if err := rpcconn.DecodeInto(raw, &snap); err != nil {
		return nil, fmt.Errorf("buffer: decoding remote state: %w", err)
	}
	return &Remote{conn: conn, id: id, mirror: NewWithContent(snap.Content)}, nil
}

// Edit sends an edit request to the remote buffer and updates the local
// mirror from its response.
func (r *Remote) Edit(ctx context.Context, start, end int, text string) error {
	raw, err := r.conn.Request(ctx, r.id, editRequest{Start: start, End: end, Text: text})
	if err != nil {
		return fmt.Errorf("buffer: remote edit: %w", err)
	}
	var snap snapshot
	if err := rpcconn.DecodeInto(raw, &snap); err != nil {
		return fmt.Errorf("buffer: decoding edit response: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror = NewWithContent(snap.Content)
	return nil
}

// String returns the last-fetched mirrored content.
func (r *Remote) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.String()
}

// Len returns the length in runes of the last-fetched mirrored content.
func (r *Remote) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Len()
}
