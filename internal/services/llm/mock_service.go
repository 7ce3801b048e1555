package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
)

// MockService is a deterministic LLMService for tests and offline runs.
// Embeddings are a stable function of input length; chat echoes the last
// user message.
type MockService struct {
	dimension int
	logger    arbor.ILogger
}

var _ interfaces.LLMService = (*MockService)(nil)

// NewMockService creates a mock LLM service with the configured embedding dimension
func NewMockService(config *common.Config, logger arbor.ILogger) *MockService {
	dimension := config.Embedding.Dimension
	if dimension <= 0 {
		dimension = 768
	}
	return &MockService{
		dimension: dimension,
		logger:    logger,
	}
}

// Embed returns a stable vector derived from the text length
func (s *MockService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	vector := make([]float32, s.dimension)
	length := len(text)
	vector[0] = float32(length)
	if s.dimension > 1 {
		vector[1] = float32(length % 10)
	}
	if s.dimension > 2 {
		vector[2] = 1.0
	}
	return vector, nil
}

// Chat echoes the last user message back with a fixed prefix
func (s *MockService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	lastUser := ""
	for _, msg := range messages {
		if msg.Role == "user" {
			lastUser = msg.Content
		}
	}
	if lastUser == "" {
		return "", fmt.Errorf("at least one message must have role 'user'")
	}

	return "mock response: " + strings.TrimSpace(lastUser), nil
}

// HealthCheck always succeeds
func (s *MockService) HealthCheck(ctx context.Context) error {
	return nil
}

// GetMode returns LLMModeOffline; the mock never touches the network
func (s *MockService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeOffline
}

// Close is a no-op
func (s *MockService) Close() error {
	return nil
}
