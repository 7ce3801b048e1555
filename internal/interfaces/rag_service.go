package interfaces

import (
	"context"

	"github.com/ternarybob/contexo/internal/models"
)

// RAGService answers questions with repo-aware hybrid retrieval:
// vector search expanded through the codebase graph before the LLM call.
type RAGService interface {
	Answer(ctx context.Context, req *models.RAGRequest) (*models.RAGResponse, error)
}

// SimpleRAGService answers questions over uploaded documents only,
// excluding code chunks at the vector-store level.
type SimpleRAGService interface {
	Answer(ctx context.Context, req *models.RAGRequest) (*models.RAGResponse, error)
}
