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

// Package fuzzy implements the incremental stack-shaped matcher and scorer
// that the path search engine drives: Matcher and Scorer both expose a
// push(name)/pop() lifecycle aligned with a depth-first traversal stack, so
// a caller can test or score a path one path segment at a time without
// rebuilding the whole string on every step.
//
// No third-party fuzzy-matching library appears anywhere in the retrieval
// pack this module was grounded on, so both types are implemented directly
// against the standard library; see the project's DESIGN.md for that
// decision.
package fuzzy

import "unicode"

// Score ranks a candidate match; higher is better.
type Score int

const (
	matchBase        Score = 10
	boundaryBonus    Score = 8
	consecutiveBonus Score = 5
	negInf           Score = -1 << 30
)

func lower(r rune) rune { return unicode.ToLower(r) }

func isBoundary(buf []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev := buf[pos-1]
	switch prev {
	case '/', '-', '_', '.', ' ':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(buf[pos])
}

// isSubsequence reports whether needle occurs as a case-insensitive
// subsequence of haystack, with no regard to score.
func isSubsequence(needle, haystack []rune) bool {
	if len(needle) == 0 {
		return true
	}
	ni := 0
	for _, h := range haystack {
		if lower(h) == lower(needle[ni]) {
			ni++
			if ni == len(needle) {
				return true
			}
		}
	}
	return false
}

// Matcher is a stateful, stack-shaped subsequence test over a needle. It
// accumulates successive path segments via Push and tests whether the
// needle is a subsequence of the full accumulated path so far.
type Matcher struct {
	needle []rune
	buf    []rune
	marks  []int // length of buf immediately before each pushed segment
}

// NewMatcher builds a Matcher over needle.
func NewMatcher(needle []rune) *Matcher {
	return &Matcher{needle: needle}
}

// Push appends name to the accumulated path and reports whether the needle
// is a subsequence of the path so far (ancestors already on the stack, plus
// name). The caller must eventually balance this with a matching Pop.
func (m *Matcher) Push(name []rune) bool {
	m.marks = append(m.marks, len(m.buf))
	m.buf = append(m.buf, name...)
	return isSubsequence(m.needle, m.buf)
}

// Pop removes the most recently pushed segment.
func (m *Matcher) Pop() {
	n := len(m.marks)
	mark := m.marks[n-1]
	m.marks = m.marks[:n-1]
	m.buf = m.buf[:mark]
}

// Scorer is the stack-shaped scoring counterpart to Matcher. Push computes
// the best-scoring alignment of the needle against the full accumulated
// path (ancestors already on the stack, plus name) and, when positions is
// non-nil, fills it with the matched character indices within that full
// accumulated path, in ascending order.
type Scorer struct {
	needle []rune
	buf    []rune
	marks  []int
}

// NewScorer builds a Scorer over needle.
func NewScorer(needle []rune) *Scorer {
	return &Scorer{needle: needle}
}

// Push appends name to the accumulated path and returns the best score for
// matching the needle against the accumulated path. If positions is
// non-nil it must have length len(needle); it is overwritten with the
// matched indices.
func (s *Scorer) Push(name []rune, positions []int) Score {
	s.marks = append(s.marks, len(s.buf))
	s.buf = append(s.buf, name...)
	return score(s.needle, s.buf, positions)
}

// Pop removes the most recently pushed segment.
func (s *Scorer) Pop() {
	n := len(s.marks)
	mark := s.marks[n-1]
	s.marks = s.marks[:n-1]
	s.buf = s.buf[:mark]
}

// Buf returns the full accumulated path as pushed so far. The path search
// engine reads this right after a winning Push to get the exact character
// sequence the returned positions index into, without rebuilding it from
// the traversal stack.
func (s *Scorer) Buf() []rune {
	return s.buf
}

// score computes the best-scoring subsequence alignment of needle within
// haystack via dynamic programming, optionally filling positions with the
// matched indices. Returns negInf if no alignment exists.
//
// D[i][j] is the best score of matching needle[:i] using haystack[:j].
// C[i][j] is the best score of matching needle[:i] with needle[i-1]
// committed to matching exactly at haystack[j-1]. Per matched character the
// score gains matchBase, a boundary bonus at path/word boundaries, a
// consecutive bonus when immediately following the previous match, and
// loses one point per character skipped since the previous match (or since
// the start of the string, for the first match) — so the total penalty
// across a whole alignment is exactly (index of the last match + 1 -
// needle length), rewarding matches that finish earlier in the string.
func score(needle, haystack []rune, positions []int) Score {
	n, m := len(needle), len(haystack)
	if n == 0 {
		return 0
	}
	if m < n {
		return negInf
	}

	d := make([][]Score, n+1)
	for i := range d {
		d[i] = make([]Score, m+1)
	}
	c := make([][]Score, n+1)
	for i := range c {
		c[i] = make([]Score, m+1)
	}
	for j := 0; j <= m; j++ {
		d[0][j] = 0
	}
	for i := 1; i <= n; i++ {
		d[i][0] = negInf
	}

	for i := 1; i <= n; i++ {
		runningMaxE := d[i-1][0] + Score(0)
		for j := 1; j <= m; j++ {
			if lower(haystack[j-1]) != lower(needle[i-1]) {
				c[i][j] = negInf
			} else {
				base := matchBase
				if isBoundary(haystack, j-1) {
					base += boundaryBonus
				}
				general := runningMaxE - Score(j) + base
				consecutive := d[i-1][j-1] + Score(j-1) - Score(j) + base + consecutiveBonus
				best := general
				if consecutive > best {
					best = consecutive
				}
				c[i][j] = best
			}
			if d[i][j-1] > c[i][j] {
				d[i][j] = d[i][j-1]
			} else {
				d[i][j] = c[i][j]
			}
			// Extend the running max over E[i-1][j'] = d[i-1][j'] + j' to
			// include j' == j, for use by the next column.
			if e := d[i-1][j] + Score(j); e > runningMaxE {
				runningMaxE = e
			}
		}
	}

	if d[n][m] <= negInf/2 {
		return negInf
	}

	if positions != nil {
		i, j := n, m
		for i > 0 {
			if j > 0 && d[i][j] == d[i][j-1] {
				j--
				continue
			}
			positions[i-1] = j - 1
			i--
			j--
		}
	}

	return d[n][m]
}
