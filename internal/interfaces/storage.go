package interfaces

import (
	"context"

	"github.com/ternarybob/contexo/internal/models"
)

// NodeStorage - interface for document node and relationship persistence
type NodeStorage interface {
	// Node operations
	UpsertNode(ctx context.Context, node *models.DocumentNode) error
	UpsertNodes(ctx context.Context, nodes []*models.DocumentNode) error
	GetNode(ctx context.Context, documentID string) (*models.DocumentNode, error)
	GetNodeByCanonicalID(ctx context.Context, repoID, canonicalID string) (*models.DocumentNode, error)
	GetNodesByCanonicalIDs(ctx context.Context, repoID string, canonicalIDs []string) ([]*models.DocumentNode, error)
	GetNodeByIngestionSource(ctx context.Context, source string) (*models.DocumentNode, error)
	UpdateNodeSummary(ctx context.Context, documentID string, summary string) error
	DeleteNodesByRepoID(ctx context.Context, repoID string) error
	CountNodesByRepoID(ctx context.Context, repoID string) (int, error)

	// ReplaceRepoGraph atomically replaces a repo's stored graph: the delete
	// of the previous nodes and the insert of the new nodes and relationships
	// run in a single transaction.
	ReplaceRepoGraph(ctx context.Context, repoID string, nodes []*models.DocumentNode, rels []*models.DocumentRelationship) error

	// Relationship operations
	InsertRelationships(ctx context.Context, rels []*models.DocumentRelationship) error
	GetRelationshipsFrom(ctx context.Context, documentID string) ([]*models.DocumentRelationship, error)

	// Graph export for query-time traversal
	ExportGraph(ctx context.Context, repoID string) (*models.GraphExport, error)

	// Repo listings
	ListRepos(ctx context.Context) ([]*models.RepoInfo, error)
}

// VectorStorage - interface for embedding persistence and similarity search
type VectorStorage interface {
	// Add inserts a batch of vector records
	Add(ctx context.Context, records []models.VectorRecord) error

	// SimilaritySearch returns the k nearest records by cosine similarity,
	// restricted to rows whose metadata satisfies the filter. Supported
	// predicate forms: equality {key: value}, inequality {key: {"ne": v}}
	// (missing key matches), membership {key: {"in": [...]}}.
	SimilaritySearch(ctx context.Context, queryVector []float32, k int, metadataFilter map[string]interface{}) ([]models.VectorSearchResult, error)

	// SearchByDocument fetches up to k chunks for a document, ordered by
	// chunk_index ascending. Not ranked.
	SearchByDocument(ctx context.Context, documentID string, k int) ([]models.VectorSearchResult, error)

	// DeleteByIngestionID purges all vectors written by one ingestion
	DeleteByIngestionID(ctx context.Context, ingestionID string) error
}

// IngestionStorage - interface for ingestion request lifecycle tracking
type IngestionStorage interface {
	Create(ctx context.Context, req *models.IngestionRequest) error
	Get(ctx context.Context, ingestionID string) (*models.IngestionRequest, error)
	MarkRunning(ctx context.Context, ingestionID string) error
	MarkCompleted(ctx context.Context, ingestionID string) error
	MarkFailed(ctx context.Context, ingestionID string, errMsg string) error
	// ListStuck returns running requests older than the given age, for the
	// supervisor sweep.
	ListStuck(ctx context.Context, olderThanSeconds int64) ([]*models.IngestionRequest, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	NodeStorage() NodeStorage
	VectorStorage() VectorStorage
	IngestionStorage() IngestionStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
