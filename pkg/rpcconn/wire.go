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

package rpcconn

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// frame is one line of the wire protocol: a newline-delimited JSON object,
// the same framing the teacher's MCP server uses for JSON-RPC over stdio
// (cmd/cie/mcp.go's serveMCPLoop: bufio.Scanner reading one JSON value per
// line). Unlike JSON-RPC, a frame also carries the sub-service it targets,
// since a wire connection multiplexes requests to many services.
type frame struct {
	Kind      string          `json:"kind"` // "request" | "state" | "response"
	ReqID     uint64          `json:"req_id"`
	ServiceID ServiceID       `json:"service_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type wireResult struct {
	payload json.RawMessage
	err     string
}

// WireConnection is a Peer backed by a real io.ReadWriteCloser: each side
// runs a read loop dispatching inbound requests to its own registered
// services and matching inbound responses to its own outstanding calls by
// request id. This is the substrate `projectd serve` actually speaks; the
// in-process Connection pair
// in rpcconn.go exists so tests don't need a real socket to exercise the
// same project-service and remote-project code paths.
type WireConnection struct {
	w    *bufio.Writer
	rw   io.ReadWriteCloser
	done chan struct{}

	mu        sync.Mutex
	nextID    ServiceID
	services  map[ServiceID]Handler
	nextReqID uint64
	pending   map[uint64]chan wireResult
}

var _ Peer = (*WireConnection)(nil)

// NewWireConnection wraps rw and starts its read loop in the background.
func NewWireConnection(rw io.ReadWriteCloser) *WireConnection {
	c := &WireConnection{
		rw:       rw,
		w:        bufio.NewWriter(rw),
		services: make(map[ServiceID]Handler),
		pending:  make(map[uint64]chan wireResult),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Close closes the underlying transport, ending the read loop.
func (c *WireConnection) Close() error {
	return c.rw.Close()
}

// Done returns a channel closed once the read loop has ended — the peer
// hung up, or the transport otherwise failed. A server uses this to know
// when it's safe to close its side of the connection.
func (c *WireConnection) Done() <-chan struct{} {
	return c.done
}

// AddService registers h and returns the id the peer must use to reach it.
func (c *WireConnection) AddService(h Handler) ServiceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.services[id] = h
	return id
}

func (c *WireConnection) readLoop() {
	scanner := bufio.NewScanner(c.rw)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f frame
		if err := json.Unmarshal(line, &f); err != nil {
			slog.Debug("rpcconn: decoding frame", "error", err)
			continue
		}
		switch f.Kind {
		case "request", "state":
			go c.serveInbound(f)
		case "response":
			c.deliver(f.ReqID, wireResult{payload: f.Payload, err: f.Error})
		default:
			slog.Debug("rpcconn: unknown frame kind", "kind", f.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Debug("rpcconn: read loop ended", "error", err)
	}
	c.drainPending()
	close(c.done)
}

func (c *WireConnection) drainPending() {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[uint64]chan wireResult)
	c.mu.Unlock()
	for _, ch := range pending {
		ch <- wireResult{err: io.ErrClosedPipe.Error()}
	}
}

func (c *WireConnection) serveInbound(f frame) {
	c.mu.Lock()
	h, ok := c.services[f.ServiceID]
	c.mu.Unlock()

	resp := frame{Kind: "response", ReqID: f.ReqID}
	if !ok {
		resp.Error = ErrServiceNotFound.Error()
		c.writeFrame(resp)
		return
	}

	var (
		payload json.RawMessage
		err     error
	)
	if f.Kind == "state" {
		payload, err = h.State(context.Background())
	} else {
		payload, err = h.HandleRequest(context.Background(), f.Payload)
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Payload = payload
	}
	c.writeFrame(resp)
}

func (c *WireConnection) deliver(reqID uint64, res wireResult) {
	c.mu.Lock()
	ch, ok := c.pending[reqID]
	if ok {
		delete(c.pending, reqID)
	}
	c.mu.Unlock()
	if ok {
		ch <- res
	}
}

func (c *WireConnection) writeFrame(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Debug("rpcconn: encoding frame", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(data); err != nil {
		slog.Debug("rpcconn: writing frame", "error", err)
		return
	}
	if err := c.w.WriteByte('\n'); err != nil {
		slog.Debug("rpcconn: writing frame newline", "error", err)
		return
	}
	if err := c.w.Flush(); err != nil {
		slog.Debug("rpcconn: flushing frame", "error", err)
	}
}

func (c *WireConnection) roundTrip(ctx context.Context, kind string, id ServiceID, payload json.RawMessage) (json.RawMessage, error) {
	c.mu.Lock()
	reqID := c.nextReqID
	c.nextReqID++
	ch := make(chan wireResult, 1)
	c.pending[reqID] = ch
	c.mu.Unlock()

	c.writeFrame(frame{Kind: kind, ReqID: reqID, ServiceID: id, Payload: payload})

	select {
	case res := <-ch:
		if res.err != "" {
			return nil, fmt.Errorf("rpcconn: %s", res.err)
		}
		return res.payload, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// State fetches the current state of the peer's service id.
func (c *WireConnection) State(ctx context.Context, id ServiceID) (json.RawMessage, error) {
	return c.roundTrip(ctx, "state", id, nil)
}

// Request marshals payload and sends it to the peer's service id, waiting
// for its response.
func (c *WireConnection) Request(ctx context.Context, id ServiceID, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rpcconn: marshaling request: %w", err)
	}
	return c.roundTrip(ctx, "request", id, data)
}
