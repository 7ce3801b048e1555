package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// summaryInputLimit caps how much document text is sent to the LLM
const summaryInputLimit = 8000

const summarySystemPrompt = "You summarize documents for a retrieval index. " +
	"Produce a concise 2-3 sentence summary of the document's purpose and " +
	"main content. Respond with the summary only."

// Service generates and stores summaries for ingested documents. Summaries
// land on the DocumentNode row and improve retrieval context, they are never
// surfaced synchronously to the ingest caller.
type Service struct {
	nodeStorage interfaces.NodeStorage
	llmService  interfaces.LLMService
	logger      arbor.ILogger
}

var _ interfaces.SummaryService = (*Service)(nil)

// NewService creates a summary service
func NewService(nodeStorage interfaces.NodeStorage, llmService interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		nodeStorage: nodeStorage,
		llmService:  llmService,
		logger:      logger,
	}
}

// SummarizeIngestion generates an LLM summary for the document created by the
// given file ingestion and stores it on the node
func (s *Service) SummarizeIngestion(ctx context.Context, ingestionID string) error {
	node, err := s.findNode(ctx, ingestionID)
	if err != nil {
		return err
	}
	if node.Text == "" {
		s.logger.Debug().
			Str("ingestion_id", ingestionID).
			Msg("Skipping summarization for node without text")
		return nil
	}

	text := node.Text
	if len(text) > summaryInputLimit {
		text = text[:summaryInputLimit]
	}

	answer, err := s.llmService.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Document title: %s\n\n%s", node.Title, text)},
	})
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	summary := strings.TrimSpace(answer)
	if summary == "" {
		return fmt.Errorf("LLM returned empty summary")
	}

	if err := s.nodeStorage.UpdateNodeSummary(ctx, node.DocumentID, summary); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Info().
		Str("ingestion_id", ingestionID).
		Str("document_id", node.DocumentID).
		Int("summary_len", len(summary)).
		Msg("Document summarized")

	return nil
}

// ApplySummary stores a caller-provided summary on the node created by the
// given ingestion
func (s *Service) ApplySummary(ctx context.Context, ingestionID string, summary string) error {
	if strings.TrimSpace(summary) == "" {
		return fmt.Errorf("summary cannot be empty")
	}

	node, err := s.findNode(ctx, ingestionID)
	if err != nil {
		return err
	}

	if err := s.nodeStorage.UpdateNodeSummary(ctx, node.DocumentID, summary); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Info().
		Str("ingestion_id", ingestionID).
		Str("document_id", node.DocumentID).
		Msg("Summary applied")

	return nil
}

func (s *Service) findNode(ctx context.Context, ingestionID string) (*models.DocumentNode, error) {
	source := models.IngestionSourceTag(models.SourceTypeFile, ingestionID)
	node, err := s.nodeStorage.GetNodeByIngestionSource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to look up node for ingestion %s: %w", ingestionID, err)
	}
	if node == nil {
		return nil, fmt.Errorf("no document found for ingestion %s", ingestionID)
	}
	return node, nil
}
