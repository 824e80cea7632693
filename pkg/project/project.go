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

// Package project implements the two faces of a "project" — local and
// remote — over a shared buffer registry and path search engine: opening
// paths and buffers with de-duplication across concurrent opens, and
// starting cancellable fuzzy searches across every tree the project holds.
package project

import (
	"context"

	"github.com/kraklabs/projectcore/pkg/buffer"
	"github.com/kraklabs/projectcore/pkg/search"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// Project is the capability surface a LocalProject implements: opening
// paths and buffers against a set of trees, and starting a path search
// over them. RemoteProject exposes the same three operations under the
// same names but does not implement this interface, since its opens
// return *buffer.Remote rather than *buffer.Buffer — see RemoteProject's
// doc comment and DESIGN.md.
type Project interface {
	OpenPath(ctx context.Context, repoID vfs.RepositoryID, relativePath string) (*buffer.Buffer, error)
	OpenBuffer(ctx context.Context, id buffer.ID) (*buffer.Buffer, error)
	SearchPaths(needle string, maxResults int, includeIgnored bool) (*search.Search, *search.Observer)
}
