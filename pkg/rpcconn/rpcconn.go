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

// Package rpcconn implements the bidirectional request/response substrate
// the project service and the remote project depend on but which the
// source specification leaves external: a connection supporting nested
// sub-services, each identified by a ServiceID. Every request and state
// payload is round-tripped through encoding/json, the same wire format the
// teacher's own JSON-RPC-over-stdio MCP server uses, so a real substrate
// could replace the in-process pair below (NewPair) with one that moves
// bytes over a socket or a pipe without touching a single call site in
// pkg/project.
package rpcconn

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ServiceID identifies one sub-service registered on a connection.
type ServiceID uint64

// Peer is the capability surface both connection implementations expose:
// the in-process pair built by NewPair, and the real wire transport in
// wire.go. A project service and a remote project are written against
// this interface so the substrate backing them can change from an
// in-process pipe to a real socket without touching pkg/project.
type Peer interface {
	AddService(h Handler) ServiceID
	State(ctx context.Context, id ServiceID) (json.RawMessage, error)
	Request(ctx context.Context, id ServiceID, payload interface{}) (json.RawMessage, error)
}

// Handler is implemented by anything a connection can expose as a
// sub-service: a project, a tree, or a buffer.
type Handler interface {
	// State returns the service's initial/current state snapshot.
	State(ctx context.Context) (json.RawMessage, error)
	// HandleRequest processes one request payload and returns a response
	// payload, or an application error (not a transport failure). The
	// in-process Connection surfaces that error to the caller unchanged;
	// WireConnection carries only its message text and returns a new error.
	HandleRequest(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// ErrServiceNotFound is returned when a ServiceID has no registered
// handler on the peer connection — the RPC analogue of a dangling handle.
var ErrServiceNotFound = fmt.Errorf("rpcconn: service not found")

// Connection is one side of a bidirectional request/response channel. Each
// side keeps its own registry of services it exposes to the other.
type Connection struct {
	mu       sync.Mutex
	nextID   ServiceID
	services map[ServiceID]Handler
	peer     *Connection
}

var _ Peer = (*Connection)(nil)

// NewPair builds two connected Connection endpoints, each able to register
// services the other side can reach by ServiceID.
func NewPair() (a, b *Connection) {
	a = &Connection{services: make(map[ServiceID]Handler)}
	b = &Connection{services: make(map[ServiceID]Handler)}
	a.peer = b
	b.peer = a
	return a, b
}

// AddService registers h on this connection's side and returns the id the
// peer must use to reach it. IDs are assigned densely starting at zero in
// registration order, so the very first service a server registers is
// always reachable at ServiceID 0 — the well-known id a project service
// publishes itself under.
func (c *Connection) AddService(h Handler) ServiceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.services[id] = h
	return id
}

func (c *Connection) lookup(id ServiceID) (Handler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.services[id]
	return h, ok
}

// State fetches the current state of the peer's service id.
func (c *Connection) State(ctx context.Context, id ServiceID) (json.RawMessage, error) {
	h, ok := c.peer.lookup(id)
	if !ok {
		return nil, ErrServiceNotFound
	}
	return h.State(ctx)
}

// Request marshals payload and sends it to the peer's service id, waiting
// for its response. Marshaling happens even though this pair is in-process
// so that any payload this substrate is asked to carry is provably
// serializable, matching the wire shapes the RPC contract promises.
func (c *Connection) Request(ctx context.Context, id ServiceID, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rpcconn: marshaling request: %w", err)
	}
	h, ok := c.peer.lookup(id)
	if !ok {
		return nil, ErrServiceNotFound
	}
	return h.HandleRequest(ctx, data)
}

// DecodeInto is a convenience used by Handler implementations to unmarshal
// a request or state payload into a concrete type.
func DecodeInto(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

// Encode is a convenience used by Handler implementations to marshal a
// concrete response or state value.
func Encode(v interface{}) (json.RawMessage, error) {
	return json.Marshal(v)
}
