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

package project

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	projecterr "github.com/kraklabs/projectcore/internal/errors"
	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/pkg/buffer"
	"github.com/kraklabs/projectcore/pkg/registry"
	"github.com/kraklabs/projectcore/pkg/search"
	"github.com/kraklabs/projectcore/pkg/vfs"
)

// LocalProject owns a set of local trees, the shared buffer registry, and
// the buffer id allocator for this project's lifetime.
type LocalProject struct {
	provider vfs.FileProvider
	metrics  *metrics.Collectors

	mu       sync.Mutex
	trees    map[vfs.RepositoryID]vfs.LocalTree
	nextRepo vfs.RepositoryID
	registry *registry.Registry
	nextBuf  buffer.ID
}

// NewLocalProject builds an empty local project backed by provider. m may
// be nil.
func NewLocalProject(provider vfs.FileProvider, m *metrics.Collectors) *LocalProject {
	return &LocalProject{
		provider: provider,
		metrics:  m,
		trees:    make(map[vfs.RepositoryID]vfs.LocalTree),
		registry: registry.New(),
	}
}

// RegisterTree adds tree to the project and returns the RepositoryId
// assigned to it, stable for the project's lifetime.
func (p *LocalProject) RegisterTree(tree vfs.LocalTree) vfs.RepositoryID {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextRepo
	p.nextRepo++
	p.trees[id] = tree
	return id
}

// Repositories returns a snapshot of the trees this project currently
// serves, for administrative tooling.
func (p *LocalProject) Repositories() map[vfs.RepositoryID]vfs.LocalTree {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[vfs.RepositoryID]vfs.LocalTree, len(p.trees))
	for k, v := range p.trees {
		out[k] = v
	}
	return out
}

func (p *LocalProject) tree(id vfs.RepositoryID) (vfs.LocalTree, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.trees[id]
	return t, ok
}

// ResolvePath resolves (repoID, relativePath) to an absolute path without
// touching the file provider or the registry.
func (p *LocalProject) ResolvePath(repoID vfs.RepositoryID, relativePath string) (string, error) {
	tree, ok := p.tree(repoID)
	if !ok {
		return "", projecterr.NewTreeNotFound()
	}
	return filepath.Join(tree.RootPath(), filepath.FromSlash(relativePath)), nil
}

// OpenPath implements the check-read-recheck-insert protocol: two
// concurrent opens of the same path must resolve to the same buffer, and
// a buffer with no remaining external strong reference must not satisfy a
// later open.
func (p *LocalProject) OpenPath(ctx context.Context, repoID vfs.RepositoryID, relativePath string) (*buffer.Buffer, error) {
	absPath, err := p.ResolvePath(repoID, relativePath)
	if err != nil {
		return nil, err
	}

	file, err := p.provider.Open(ctx, absPath)
	if err != nil {
		slog.Debug("project: opening file", "path", absPath, "error", err)
		return nil, projecterr.NewIOError(err)
	}

	if buf, _, ok := p.registry.FindByFile(file.ID()); ok {
		slog.Debug("project: registry hit before read", "path", absPath)
		p.observeRegistryHit(true)
		return buf, nil
	}
	p.observeRegistryHit(false)

	content, err := file.Read(ctx)
	if err != nil {
		slog.Debug("project: reading file", "path", absPath, "error", err)
		return nil, projecterr.NewIOError(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if buf, _, ok := p.registry.FindByFile(file.ID()); ok {
		slog.Debug("project: registry hit after read, discarding content", "path", absPath)
		return buf, nil
	}

	buf := buffer.NewWithContent(content)
	buf.SetFile(file)
	id := p.nextBuf
	p.nextBuf++
	p.registry.Insert(id, buf)
	if p.metrics != nil {
		p.metrics.BufferOpensTotal.WithLabelValues("miss").Inc()
	}
	return buf, nil
}

func (p *LocalProject) observeRegistryHit(hit bool) {
	if p.metrics == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	p.metrics.RegistryHitsTotal.WithLabelValues(label).Inc()
}

// OpenBuffer looks up a buffer by id; it never yields.
func (p *LocalProject) OpenBuffer(ctx context.Context, id buffer.ID) (*buffer.Buffer, error) {
	buf, ok := p.registry.FindByID(id)
	if !ok {
		return nil, projecterr.NewBufferNotFound()
	}
	return buf, nil
}

// SearchPaths constructs a path search over a snapshot of every tree's
// root entry and repo id.
func (p *LocalProject) SearchPaths(needle string, maxResults int, includeIgnored bool) (*search.Search, *search.Observer) {
	p.mu.Lock()
	repoIDs := make([]vfs.RepositoryID, 0, len(p.trees))
	roots := make([]vfs.Entry, 0, len(p.trees))
	for id, tree := range p.trees {
		repoIDs = append(repoIDs, id)
		roots = append(roots, tree.Root())
	}
	p.mu.Unlock()
	sortReposByID(repoIDs, roots)
	return search.New(repoIDs, roots, needle, maxResults, includeIgnored, p.metrics)
}

// sortReposByID keeps repo attribution stable across calls (map iteration
// order is not), which matters for tests pinned to an exact repo id.
func sortReposByID(ids []vfs.RepositoryID, roots []vfs.Entry) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
			roots[j-1], roots[j] = roots[j], roots[j-1]
		}
	}
}
