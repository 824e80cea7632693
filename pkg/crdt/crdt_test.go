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

package crdt

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegisterValueIsHighestLamportTimestamp(t *testing.T) {
	var r Register[string]
	replica := uuid.New()
	r.Set(OperationID{ReplicaID: replica, Timestamp: 1}, 1, "first")
	r.Set(OperationID{ReplicaID: replica, Timestamp: 3}, 3, "third")
	r.Set(OperationID{ReplicaID: replica, Timestamp: 2}, 2, "second")

	got, ok := r.Value()
	if !ok {
		t.Fatalf("expected a value")
	}
	if got != "third" {
		t.Fatalf("got %q, want %q", got, "third")
	}
}

func TestRegisterTiesBrokenByReplicaID(t *testing.T) {
	var r Register[string]
	lo, hi := uuid.New(), uuid.New()
	if lessReplica(hi, lo) {
		lo, hi = hi, lo
	}

	r.Set(OperationID{ReplicaID: lo, Timestamp: 1}, 5, "from-lo")
	r.Set(OperationID{ReplicaID: hi, Timestamp: 1}, 5, "from-hi")

	got, ok := r.Value()
	if !ok {
		t.Fatalf("expected a value")
	}
	if got != "from-hi" {
		t.Fatalf("got %q, want %q (the greater replica id should win a lamport tie)", got, "from-hi")
	}
}

func TestRegisterEmptyHasNoValue(t *testing.T) {
	var r Register[int]
	if _, ok := r.Value(); ok {
		t.Fatalf("expected no value for an empty register")
	}
}

func TestResolveEpochConflictPicksGreaterReplicaID(t *testing.T) {
	lo, hi := uuid.New(), uuid.New()
	if lessReplica(hi, lo) {
		lo, hi = hi, lo
	}
	a := Epoch{ID: EpochID{ReplicaID: lo}}
	b := Epoch{ID: EpochID{ReplicaID: hi}}

	got := ResolveEpochConflict(a, b)
	if got.ID.ReplicaID != hi {
		t.Fatalf("expected the epoch from the greater replica id to win")
	}

	got = ResolveEpochConflict(b, a)
	if got.ID.ReplicaID != hi {
		t.Fatalf("expected the winner to be the same regardless of argument order")
	}
}
