package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
)

// NewLLMService creates the LLM service implementation selected by
// llm.default_provider: gemini, claude, or mock.
func NewLLMService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := config.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(config, kvStorage, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(config, kvStorage, logger)
	case common.LLMProviderMock:
		return NewMockService(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
