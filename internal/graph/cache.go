package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
)

// Cache holds one CodebaseGraph per repo, loaded lazily from node storage.
// It is an explicitly constructed service with an invalidate method, not a
// package-level global; re-ingestion calls Invalidate to force a reload.
type Cache struct {
	mu     sync.RWMutex
	graphs map[string]*CodebaseGraph
	nodes  interfaces.NodeStorage
	logger arbor.ILogger
}

// NewCache creates a graph cache backed by node storage
func NewCache(nodes interfaces.NodeStorage, logger arbor.ILogger) *Cache {
	return &Cache{
		graphs: make(map[string]*CodebaseGraph),
		nodes:  nodes,
		logger: logger,
	}
}

// Get returns the cached graph for a repo, loading it on first use.
// Single writer per repo id; readers never mutate the graph.
func (c *Cache) Get(ctx context.Context, repoID string) (*CodebaseGraph, error) {
	c.mu.RLock()
	if g, ok := c.graphs[repoID]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if g, ok := c.graphs[repoID]; ok {
		return g, nil
	}

	export, err := c.nodes.ExportGraph(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to export graph for repo %s: %w", repoID, err)
	}

	g := BuildCodebaseGraph(export)
	c.graphs[repoID] = g

	c.logger.Info().
		Str("repo_id", repoID).
		Int("nodes", g.Len()).
		Msg("Codebase graph loaded into cache")

	return g, nil
}

// Invalidate drops the cached graph for a repo
func (c *Cache) Invalidate(repoID string) {
	c.mu.Lock()
	delete(c.graphs, repoID)
	c.mu.Unlock()
}

// ResolveDocumentIDs maps canonical ids to document ids for one repo.
// Unknown canonical ids are omitted.
func (c *Cache) ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error) {
	g, err := c.Get(ctx, repoID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(canonicalIDs))
	for _, cid := range canonicalIDs {
		if node := g.Get(cid); node != nil && node.DocumentID != "" {
			out[cid] = node.DocumentID
		}
	}
	return out, nil
}
