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

package errors

import (
	"encoding/json"
	"testing"
)

func TestErrorJSONRoundTrip(t *testing.T) {
	want := NewIOError(nil)
	want.Message = "disk on fire"

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Error
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != KindIO {
		t.Fatalf("got kind %v, want KindIO", got.Kind)
	}
	if got.Message != "disk on fire" {
		t.Fatalf("got message %q, want %q", got.Message, "disk on fire")
	}
}

func TestErrorUnmarshalUnknownKindBecomesUnexpectedResponse(t *testing.T) {
	var got Error
	if err := json.Unmarshal([]byte(`{"kind":"SomethingFromTheFuture"}`), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != KindUnexpectedResponse {
		t.Fatalf("got kind %v, want KindUnexpectedResponse", got.Kind)
	}
}

func TestIsMatchesOutermostErrorKind(t *testing.T) {
	inner := NewTreeNotFound()
	wrapped := &Error{Kind: KindRPC, Message: "dispatch failed", Cause: inner}
	if !Is(wrapped, KindRPC) {
		t.Fatalf("expected Is to match the outer kind")
	}
	if Is(wrapped, KindTreeNotFound) {
		t.Fatalf("Is does not unwrap through Cause chains of *Error, only matches the outermost *Error")
	}
}
