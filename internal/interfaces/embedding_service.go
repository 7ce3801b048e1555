package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for raw text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Generate embeddings for a batch of texts; result length must equal input length
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Generate query embedding (may have different prompt than document embedding)
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Provider name recorded in chunk provenance ("gemini", "mock")
	Provider() string

	// Check if service is available
	IsAvailable(ctx context.Context) bool
}
