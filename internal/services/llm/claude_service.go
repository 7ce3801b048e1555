package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"golang.org/x/time/rate"
)

// ClaudeService implements the LLMService interface over the Anthropic API.
// Claude has no embedding endpoint; Embed always fails, so deployments using
// Claude for chat pair it with the Gemini or mock embedder.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	maxTokens int
}

var _ interfaces.LLMService = (*ClaudeService)(nil)

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam
// format, extracting the first system message for the System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a Claude LLM service. The API key resolves from
// environment, KV store, then config.
func NewClaudeService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*ClaudeService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", config.Claude.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, CONTEXO_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	timeout, err := time.ParseDuration(config.Claude.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Claude.Timeout, err)
	}

	rateInterval, err := time.ParseDuration(config.Claude.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.Claude.RateLimit, err)
	}

	maxTokens := config.Claude.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	service := &ClaudeService{
		config:    &config.Claude,
		logger:    logger,
		client:    &client,
		limiter:   rate.NewLimiter(rate.Every(rateInterval), 1),
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Info().
		Str("model", config.Claude.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Embed is unsupported; the Anthropic API has no embedding endpoint
func (s *ClaudeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("claude provider does not support embeddings; configure a different embedding provider")
}

// Chat generates a completion from the conversation history
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.config.Model),
		MaxTokens:   int64(s.maxTokens),
		Messages:    claudeMessages,
		Temperature: anthropic.Float(float64(s.config.Temperature)),
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	start := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().Err(err).Int("message_count", len(messages)).Msg("Claude chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude chat completion finished")

	return response.String(), nil
}

// HealthCheck sends a minimal probe message
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("claude client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Chat(probeCtx, []interfaces.Message{{Role: "user", Content: "ping"}})
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("chat probe returned empty response")
	}
	return nil
}

// GetMode returns LLMModeCloud; this implementation always uses the API
func (s *ClaudeService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases the client reference
func (s *ClaudeService) Close() error {
	s.logger.Info().Msg("Closing Claude LLM service")
	s.client = nil
	return nil
}
