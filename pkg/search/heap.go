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

import "container/heap"

// resultHeap is a min-heap by score: the worst kept result sits at the
// top, so admitting a new candidate only ever has to compare against
// index 0.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topK bounds a result set to its best max entries, keeping the worst of
// the kept results at the top of an internal heap so admission and
// eviction are both O(log max).
type topK struct {
	h   resultHeap
	max int
}

func newTopK(max int) *topK {
	return &topK{max: max}
}

// admit applies the top-K admission rule: take r if there is still room,
// or if r strictly beats the worst entry currently kept.
func (t *topK) admit(r Result) {
	if t.max <= 0 {
		return
	}
	if len(t.h) < t.max {
		heap.Push(&t.h, r)
		return
	}
	if len(t.h) > 0 && r.Score > t.h[0].Score {
		heap.Pop(&t.h)
		heap.Push(&t.h, r)
	}
}

// drain empties the heap in ascending score order, matching the internal
// "worst first" orientation the heap keeps results in.
func (t *topK) drain() []Result {
	out := make([]Result, 0, len(t.h))
	for len(t.h) > 0 {
		out = append(out, heap.Pop(&t.h).(Result))
	}
	return out
}
