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

// Package search implements the cancellable, two-phase fuzzy path search:
// an explicit depth-first walk over the union of a project's trees that
// first marks which entries contain a match (find-matches), then scores
// and ranks the actual matches (rank-matches) into a bounded top-K list.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"weak"

	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/pkg/fuzzy"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// Result is one ranked path search hit.
type Result struct {
	Score        int
	Positions    []int
	RepoID       vfs.RepositoryID
	RelativePath string
	DisplayPath  string
}

type marker uint8

const (
	markerNone marker = iota
	markerIsMatch
	markerContainsMatch
)

// frame is one level of the explicit traversal stack: the children being
// walked at this level, the index of the one currently in progress, and
// (phase-dependent) whether this level is already known to be inside a
// match.
type frame struct {
	children []vfs.Entry
	index    int
	flag     bool // phase 1: this subtree found a match. phase 2: this subtree is already inside a matched one.
}

// Search owns one path search: an immutable snapshot of the trees to walk
// plus the parameters of the query. It is built by search_paths and
// advanced to completion by a single call to Poll.
type Search struct {
	repoIDs        []vfs.RepositoryID
	roots          []vfs.Entry
	needle         []rune
	maxResults     int
	includeIgnored bool
	cellRef        weak.Pointer[Cell]
	metrics        *metrics.Collectors
}

// New builds a search over the given repo roots (parallel to repoIDs) and
// returns it alongside the Observer the caller must hold to keep the
// search from being treated as cancelled. m may be nil.
func New(repoIDs []vfs.RepositoryID, roots []vfs.Entry, needle string, maxResults int, includeIgnored bool, m *metrics.Collectors) (*Search, *Observer) {
	cell := &Cell{}
	obs := &Observer{cell: cell}
	s := &Search{
		repoIDs:        repoIDs,
		roots:          roots,
		needle:         []rune(needle),
		maxResults:     maxResults,
		includeIgnored: includeIgnored,
		cellRef:        weak.Make(cell),
		metrics:        m,
	}
	return s, obs
}

func (s *Search) observerAlive() bool {
	return s.cellRef.Value() != nil
}

func (s *Search) publish(status Status) {
	cell := s.cellRef.Value()
	if cell == nil {
		return
	}
	cell.set(status)
}

// Poll runs both phases of the search to completion in a single call,
// publishing exactly one status update unless the observer was dropped,
// in which case nothing is published at all.
func (s *Search) Poll() {
	if len(s.needle) == 0 {
		s.publish(Status{Ready: true, Results: nil})
		return
	}

	start := time.Now()
	markers := make(map[vfs.EntryID]marker)
	matcher := fuzzy.NewMatcher(s.needle)
	if s.walkFindMatches(matcher, markers) {
		if s.metrics != nil {
			s.metrics.SearchCancelledTotal.Inc()
		}
		return
	}

	scorer := fuzzy.NewScorer(s.needle)
	heapK := newTopK(s.maxResults)
	if s.walkRankMatches(scorer, markers, heapK) {
		if s.metrics != nil {
			s.metrics.SearchCancelledTotal.Inc()
		}
		return
	}

	results := heapK.drain()
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].RepoID != results[j].RepoID {
			return results[i].RepoID < results[j].RepoID
		}
		return results[i].RelativePath < results[j].RelativePath
	})

	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		s.metrics.SearchResultsTotal.Add(float64(len(results)))
	}
	s.publish(Status{Ready: true, Results: results})
}

func (s *Search) rootFrame() *frame {
	if len(s.roots) == 1 {
		children, err := s.roots[0].Children()
		if err != nil {
			slog.Debug("search: reading root children", "error", err)
			children = nil
		}
		return &frame{children: children}
	}
	return &frame{children: s.roots}
}

// walkFindMatches is phase 1: mark every entry IsMatch or ContainsMatch,
// skipping ignored entries unconditionally. Returns true if cancelled.
func (s *Search) walkFindMatches(matcher *fuzzy.Matcher, markers map[vfs.EntryID]marker) bool {
	stack := []*frame{s.rootFrame()}
	steps := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.index >= len(top.children) {
			found := top.flag
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			matcher.Pop()
			parent := stack[len(stack)-1]
			if found {
				markers[parent.children[parent.index].ID()] = markerContainsMatch
				parent.flag = true
			}
			parent.index++
			continue
		}

		entry := top.children[top.index]
		steps++
		if steps%10000 == 0 && !s.observerAlive() {
			return true
		}
		if entry.IsIgnored() {
			top.index++
			continue
		}

		if matcher.Push(entry.MatchChars()) {
			markers[entry.ID()] = markerIsMatch
			matcher.Pop()
			top.flag = true
			top.index++
			continue
		}

		if entry.IsDir() {
			children, err := entry.Children()
			if err != nil {
				slog.Debug("search: reading children", "entry", entry.ID(), "error", err)
				matcher.Pop()
				top.index++
				continue
			}
			stack = append(stack, &frame{children: children})
			continue
		}

		matcher.Pop()
		top.index++
	}
	return false
}

// walkRankMatches is phase 2: score every entry phase 1 marked (or that
// lies under one that was), honoring include_ignored. Returns true if
// cancelled.
func (s *Search) walkRankMatches(scorer *fuzzy.Scorer, markers map[vfs.EntryID]marker, topKHeap *topK) bool {
	stack := []*frame{s.rootFrame()}
	steps := 0
	positions := make([]int, len(s.needle))
	multiRoot := len(s.roots) > 1

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.index >= len(top.children) {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			scorer.Pop()
			parent := stack[len(stack)-1]
			parent.index++
			continue
		}

		entry := top.children[top.index]
		steps++
		if steps%1000 == 0 && !s.observerAlive() {
			return true
		}
		if entry.IsIgnored() && !s.includeIgnored {
			top.index++
			continue
		}

		mk := markers[entry.ID()]

		if entry.IsDir() {
			switch {
			case top.flag || mk == markerIsMatch:
				scorer.Push(entry.MatchChars())
				children, err := entry.Children()
				if err != nil {
					slog.Debug("search: reading children", "entry", entry.ID(), "error", err)
					scorer.Pop()
					top.index++
					continue
				}
				stack = append(stack, &frame{children: children, flag: true})
			case mk == markerContainsMatch:
				scorer.Push(entry.MatchChars())
				children, err := entry.Children()
				if err != nil {
					slog.Debug("search: reading children", "entry", entry.ID(), "error", err)
					scorer.Pop()
					top.index++
					continue
				}
				stack = append(stack, &frame{children: children})
			default:
				top.index++
			}
			continue
		}

		if top.flag || mk == markerIsMatch {
			sc := scorer.Push(entry.MatchChars(), positions)
			display := append([]rune(nil), scorer.Buf()...)
			scorer.Pop()
			topKHeap.admit(s.buildResult(stack, int(sc), positions, display, multiRoot))
		}
		top.index++
	}
	return false
}

func (s *Search) buildResult(stack []*frame, score int, positions []int, display []rune, multiRoot bool) Result {
	parts := make([]string, 0, len(stack))
	for i, f := range stack {
		if multiRoot && i == 0 {
			continue
		}
		parts = append(parts, f.children[f.index].Name())
	}
	var repoID vfs.RepositoryID
	if multiRoot {
		repoID = s.repoIDs[stack[0].index]
	} else {
		repoID = s.repoIDs[0]
	}
	return Result{
		Score:        score,
		Positions:    append([]int(nil), positions...),
		RepoID:       repoID,
		RelativePath: strings.Join(parts, "/"),
		DisplayPath:  string(display),
	}
}
