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

// Package crdt declares the shapes of the conflict-free repository data
// model that the buffer layer may eventually extend into full collaborative
// history: replicas, lamport clocks, versions, last-writer-wins registers,
// and the node tree they resolve to. It is declarative scaffolding — no
// merge engine, network sync, or persistence lives here. The two rules a
// future implementer must preserve are enforced by Register.Value and by
// ResolveEpochConflict below.
package crdt

import (
	"github.com/google/uuid"
)

// ReplicaID identifies one collaborating peer in a repository's history.
type ReplicaID = uuid.UUID

// LamportTimestamp is a monotonic logical clock shared across replicas.
type LamportTimestamp uint64

// LocalTimestamp is a per-replica monotonic clock, used to order a single
// replica's own operations and to key a VectorClock.
type LocalTimestamp uint64

// EpochID names an epoch by the replica that created it and that replica's
// local clock at creation time.
type EpochID struct {
	ReplicaID ReplicaID
	Timestamp LocalTimestamp
}

// VectorClock maps each replica that has contributed operations in an epoch
// to the local timestamp of its latest contribution. A replica absent from
// the map is assumed to be at timestamp zero.
type VectorClock map[ReplicaID]LocalTimestamp

// Version identifies a unique state of a work tree: an epoch plus a vector
// clock relative to the start of that epoch.
type Version struct {
	Epoch EpochID
	Clock VectorClock
}

// Epoch is a span of history bounded by coarse-grained external events
// (for example, a Git commit moving HEAD). Operations concurrent with the
// creation of a new epoch fall after the point the previous epoch closed
// and are cancelled; see ResolveEpochConflict for concurrent creations.
type Epoch struct {
	ID         EpochID
	ParentID   EpochID
	EndVersion *VectorClock
	CommitSHA  *[20]byte
}

// OperationID identifies a single operation: the epoch and replica that
// produced it, and that replica's local clock at the time.
type OperationID struct {
	EpochID   EpochID
	ReplicaID ReplicaID
	Timestamp LocalTimestamp
}

// RegisterEntry is one candidate value for a Register, ordered by
// LamportTimestamp with ties broken by the producing replica id.
type RegisterEntry[T any] struct {
	ID               OperationID
	LamportTimestamp LamportTimestamp
	Value            T
}

// Less orders entries so that the greatest lamport timestamp sorts last,
// with replica id breaking ties — the ordering Register.Value relies on.
func (e RegisterEntry[T]) Less(other RegisterEntry[T]) bool {
	if e.LamportTimestamp != other.LamportTimestamp {
		return e.LamportTimestamp < other.LamportTimestamp
	}
	return lessReplica(e.ID.ReplicaID, other.ID.ReplicaID)
}

func lessReplica(a, b ReplicaID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Register is a last-writer-wins CRDT cell: an ordered set of candidate
// entries where the greatest (lamport timestamp, replica id) pair wins.
// The ordering is total and stable, independent of insertion order.
type Register[T any] struct {
	entries []RegisterEntry[T]
}

// Set records a new candidate value. Entries are kept sorted so Value is O(1).
func (r *Register[T]) Set(id OperationID, lamport LamportTimestamp, value T) {
	entry := RegisterEntry[T]{ID: id, LamportTimestamp: lamport, Value: value}
	i := 0
	for i < len(r.entries) && r.entries[i].Less(entry) {
		i++
	}
	r.entries = append(r.entries, RegisterEntry[T]{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = entry
}

// Value returns the register's current value: the entry with the greatest
// (lamport timestamp, replica id), or the zero value and false if empty.
func (r *Register[T]) Value() (T, bool) {
	var zero T
	if len(r.entries) == 0 {
		return zero, false
	}
	return r.entries[len(r.entries)-1].Value, true
}

// NodeContentKind discriminates the three shapes a Node's content can take.
type NodeContentKind int

const (
	ContentDirectory NodeContentKind = iota
	ContentTextFile
	ContentBinaryFile
)

// Node represents a file or directory in the repository's history. Its name
// and parent are registers so that concurrent renames and moves converge.
type Node struct {
	ID       OperationID
	Name     Register[string]
	ParentID Register[OperationID]
	Content  NodeContentKind
}

// ResolveEpochConflict breaks a tie between two epochs created concurrently
// (detected when an epoch creation targets anything but the most recent
// epoch): the epoch whose creating replica has the greater ReplicaID wins,
// and the loser is discarded.
func ResolveEpochConflict(a, b Epoch) Epoch {
	if lessReplica(a.ID.ReplicaID, b.ID.ReplicaID) {
		return b
	}
	return a
}
