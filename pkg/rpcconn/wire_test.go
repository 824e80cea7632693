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
	"context"
	"net"
	"testing"
	"time"
)

func TestWireConnectionStateRoundTrips(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	server := NewWireConnection(a)
	client := NewWireConnection(b)
	id := server.AddService(&echoHandler{state: 7})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	raw, err := client.State(ctx, id)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	var got int
	if err := DecodeInto(raw, &got); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if got != 7 {
		t.Fatalf("got state %d, want 7", got)
	}
}

func TestWireConnectionRequestRoundTrips(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	server := NewWireConnection(a)
	client := NewWireConnection(b)
	id := server.AddService(&echoHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	raw, err := client.Request(ctx, id, map[string]string{"op": "ping"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var got map[string]string
	if err := DecodeInto(raw, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got["op"] != "ping" {
		t.Fatalf("got %v, want op=ping", got)
	}
}

func TestWireConnectionUnknownServiceSurfacesError(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	_ = NewWireConnection(a)
	client := NewWireConnection(b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.State(ctx, 99); err == nil {
		t.Fatalf("expected an error for an unknown service id")
	}
}

func TestWireConnectionDoneClosesWhenTransportCloses(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	server := NewWireConnection(a)
	_ = NewWireConnection(b)
	a.Close()

	select {
	case <-server.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("expected Done() to close once the transport closes")
	}
}
