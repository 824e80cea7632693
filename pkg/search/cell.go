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

package search

import "sync"

// Status is the one-shot, append-only status a search publishes: Pending
// until the single poll that finishes it, then Ready forever.
type Status struct {
	Ready   bool
	Results []Result
}

// Cell is the watchable status slot a search publishes to. A search holds
// only a weak reference to a Cell; an Observer holds the strong one. Once
// every Observer is gone, the cell becomes unreachable from the search's
// weak handle, which is how the search detects that nobody is watching
// anymore.
type Cell struct {
	mu     sync.Mutex
	status Status
}

func (c *Cell) set(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

// Status returns the cell's current status.
func (c *Cell) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Observer is the caller-held handle to a search's status cell. Dropping
// every Observer for a search (letting it become unreachable) is how a
// caller cancels that search.
type Observer struct {
	cell *Cell
}

// Status returns the current status published by the search this observer
// watches.
func (o *Observer) Status() Status {
	return o.cell.Status()
}
