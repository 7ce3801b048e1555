package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
)

// Service implements EmbeddingService over an LLM service. Batch embedding is
// sequential; the LLM service's own rate limiter paces the calls.
type Service struct {
	llmService interfaces.LLMService
	provider   string
	modelName  string
	dimension  int
	logger     arbor.ILogger
}

var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates an embedding service bound to an LLM backend
func NewService(llmService interfaces.LLMService, config *common.EmbeddingConfig, logger arbor.ILogger) *Service {
	return &Service{
		llmService: llmService,
		provider:   config.Provider,
		modelName:  config.Model,
		dimension:  config.Dimension,
		logger:     logger,
	}
}

// GenerateEmbedding creates a vector embedding for text
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	start := time.Now()
	embedding, err := s.llmService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("LLM service returned empty embedding")
	}

	s.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// GenerateEmbeddings embeds a batch of texts; the result always has one
// vector per input or fails entirely.
func (s *Service) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for i, text := range texts {
		embedding, err := s.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, nil
}

// GenerateQueryEmbedding embeds a search query. Queries currently use the
// same embedding path as documents.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the configured embedding model name
func (s *Service) ModelName() string {
	return s.modelName
}

// Dimension returns the embedding vector dimension
func (s *Service) Dimension() int {
	return s.dimension
}

// Provider returns the provider name recorded in chunk provenance
func (s *Service) Provider() string {
	return s.provider
}

// IsAvailable reports whether the backing LLM service is healthy
func (s *Service) IsAvailable(ctx context.Context) bool {
	return s.llmService.HealthCheck(ctx) == nil
}
