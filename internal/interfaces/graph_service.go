package interfaces

import (
	"context"
)

// GraphProvider exposes the query-time traversal graph. The concrete cache
// loads lazily from NodeStorage per repo and keeps graphs in process.
type GraphProvider interface {
	// ResolveDocumentIDs maps canonical ids to document ids for one repo.
	// Unknown canonical ids are omitted from the result.
	ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error)

	// Invalidate drops the cached graph for a repo, forcing a reload on the
	// next use. Called after re-ingestion.
	Invalidate(repoID string)
}
