package interfaces

import (
	"context"

	"github.com/ternarybob/contexo/internal/models"
)

// IngestService runs the chunk -> embed -> persist pipeline. All entry points
// are synchronous; handlers wrap them in background workers and report
// completion only through IngestionStorage.
type IngestService interface {
	// IngestText runs the raw-text path: one DocumentNode, chunked and embedded
	IngestText(ctx context.Context, ingestionID, sourceType, text string, sourceMetadata map[string]interface{}) error

	// IngestChunks runs the pre-chunked path used for PDF uploads
	IngestChunks(ctx context.Context, ingestionID, sourceType string, chunks []models.Chunk, sourceMetadata map[string]interface{}) error

	// IngestSectioned runs the sectioned path for markdown-bearing uploads:
	// one DocumentNode per artifact plus DEFINES relationships.
	IngestSectioned(ctx context.Context, ingestionID, sourceType, relativePath string, text string, sourceMetadata map[string]interface{}) error

	// IngestRepo builds the repo graph from a checked-out directory and
	// persists nodes, relationships, and chunk embeddings.
	IngestRepo(ctx context.Context, ingestionID, repoID, repoName, rootDir string) error
}
