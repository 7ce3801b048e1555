package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface over the Gemini API.
// A client-side rate limiter keeps request pacing inside the free-tier quota.
type GeminiService struct {
	config      *common.GeminiConfig
	embedConfig *common.EmbeddingConfig
	logger      arbor.ILogger
	client      *genai.Client
	limiter     *rate.Limiter
	timeout     time.Duration
}

var _ interfaces.LLMService = (*GeminiService)(nil)

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format, extracting the first system message for SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a Gemini LLM service. The API key resolves from
// environment, KV store, then config.
func NewGeminiService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY, CONTEXO_GEMINI_API_KEY, or gemini.api_key in config): %w", err)
	}

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Gemini.Timeout, err)
	}

	rateInterval, err := time.ParseDuration(config.Gemini.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.Gemini.RateLimit, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:      &config.Gemini,
		embedConfig: &config.Embedding,
		logger:      logger,
		client:      client,
		limiter:     rate.NewLimiter(rate.Every(rateInterval), 1),
		timeout:     timeout,
	}

	logger.Info().
		Str("model", config.Gemini.Model).
		Str("embed_model", config.Embedding.Model).
		Int("embed_dimension", config.Embedding.Dimension).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Embed generates an embedding vector with the configured dimensionality
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.embedConfig.Dimension)
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.embedConfig.Model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: &outputDim})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	if len(embedding) != s.embedConfig.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
			s.embedConfig.Dimension, len(embedding))
	}

	return embedding, nil
}

// Chat generates a completion from the conversation history
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	response, err := s.generateCompletion(timeoutCtx, messages)
	if err != nil {
		s.logger.Error().Err(err).Int("message_count", len(messages)).Msg("Gemini chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(start)).
		Msg("Gemini chat completion finished")

	return response, nil
}

// HealthCheck exercises the embedding model with a lightweight probe
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	embedding, err := s.Embed(probeCtx, "health check probe")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}
	return nil
}

// GetMode returns LLMModeCloud; this implementation always uses the API
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases the client reference
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}

func (s *GeminiService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, geminiContents, config)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}
	return response.String(), nil
}
