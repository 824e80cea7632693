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

package fuzzy

import "testing"

func TestMatcherPushPopTracksSubsequence(t *testing.T) {
	m := NewMatcher([]rune("abc"))
	if m.Push([]rune("a")) {
		t.Fatalf("did not expect \"a\" alone to contain \"abc\" as a subsequence")
	}
	if !m.Push([]rune("xbxcx")) {
		t.Fatalf("expected \"a\"+\"xbxcx\" to contain \"abc\" as a subsequence")
	}
	m.Pop()
	if m.Push([]rune("zzz")) {
		t.Fatalf("did not expect \"a\"+\"zzz\" to contain \"abc\" after popping \"xbxcx\"")
	}
	if m.Push([]rune("q")) {
		t.Fatalf("did not expect \"a\"+\"zzz\"+\"q\" to contain \"abc\" as a subsequence")
	}
}

func TestMatcherEmptyNeedleAlwaysMatches(t *testing.T) {
	m := NewMatcher(nil)
	if !m.Push([]rune("anything")) {
		t.Fatalf("expected empty needle to match any haystack")
	}
}

func TestScorerHigherForExactBoundaryMatch(t *testing.T) {
	s := NewScorer([]rune("foo"))
	boundary := s.Push([]rune("foo_bar"), nil)
	s.Pop()
	mid := s.Push([]rune("xxfooyy"), nil)
	s.Pop()
	if boundary <= mid {
		t.Fatalf("expected boundary-aligned match (%d) to score higher than mid-string match (%d)", boundary, mid)
	}
}

func TestScorerNoMatchIsNegativeInfinity(t *testing.T) {
	s := NewScorer([]rune("zzz"))
	got := s.Push([]rune("abc"), nil)
	if got != negInf {
		t.Fatalf("expected no-match score to be negInf, got %d", got)
	}
}

func TestScorerPositionsIndexIntoAccumulatedPath(t *testing.T) {
	s := NewScorer([]rune("ac"))
	positions := make([]int, 2)
	got := s.Push([]rune("abc"), positions)
	if got == negInf {
		t.Fatalf("expected a match")
	}
	want := []int{0, 2}
	if positions[0] != want[0] || positions[1] != want[1] {
		t.Fatalf("got positions %v, want %v", positions, want)
	}
}

func TestScorerPushPopRestoresPriorAccumulation(t *testing.T) {
	s := NewScorer([]rune("ab"))
	s.Push([]rune("a"), nil)
	s.Push([]rune("x"), nil)
	s.Pop()
	before := string(s.Buf())
	s.Push([]rune("b"), nil)
	after := string(s.Buf())
	if before != "a" {
		t.Fatalf("got accumulated buf %q after pop, want \"a\"", before)
	}
	if after != "ab" {
		t.Fatalf("got accumulated buf %q after push, want \"ab\"", after)
	}
}

func TestScorerConsecutiveCharactersScoreHigherThanScattered(t *testing.T) {
	s := NewScorer([]rune("ab"))
	consecutive := s.Push([]rune("ab_______"), nil)
	s.Pop()
	scattered := s.Push([]rune("a______b_"), nil)
	s.Pop()
	if consecutive <= scattered {
		t.Fatalf("expected consecutive match (%d) to score higher than scattered match (%d)", consecutive, scattered)
	}
}
