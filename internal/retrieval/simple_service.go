package retrieval

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// SimpleService is the document-only RAG path for uploaded files: code
// chunks are excluded at the vector store and expansion walks persisted
// DEFINES relationships instead of the codebase graph.
type SimpleService struct {
	embedder   interfaces.EmbeddingService
	vectors    interfaces.VectorStorage
	nodes      interfaces.NodeStorage
	resolveLLM LLMResolver
	config     *common.RetrievalConfig
	logger     arbor.ILogger
}

var _ interfaces.SimpleRAGService = (*SimpleService)(nil)

// NewSimpleService creates the document-only retrieval service
func NewSimpleService(
	embedder interfaces.EmbeddingService,
	vectors interfaces.VectorStorage,
	nodes interfaces.NodeStorage,
	resolveLLM LLMResolver,
	config *common.RetrievalConfig,
	logger arbor.ILogger,
) *SimpleService {
	return &SimpleService{
		embedder:   embedder,
		vectors:    vectors,
		nodes:      nodes,
		resolveLLM: resolveLLM,
		config:     config,
		logger:     logger,
	}
}

// Answer runs document-only retrieval with DEFINES expansion
func (s *SimpleService) Answer(ctx context.Context, req *models.RAGRequest) (*models.RAGResponse, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = 20
	}

	queryVector, err := s.embedder.GenerateQueryEmbedding(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// The ne predicate also matches rows with no source_type at all
	results, err := s.vectors.SimilaritySearch(ctx, queryVector, topK, map[string]interface{}{
		"source_type": map[string]interface{}{"ne": models.SourceTypeCode},
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunksByDocument := make(map[string][]RetrievedChunk)
	var seedDocIDs []string
	for _, r := range results {
		chunk, ok := chunkFromResult(r)
		if !ok {
			continue
		}
		if _, seen := chunksByDocument[chunk.DocumentID]; !seen {
			seedDocIDs = append(seedDocIDs, chunk.DocumentID)
		}
		chunksByDocument[chunk.DocumentID] = append(chunksByDocument[chunk.DocumentID], chunk)
	}

	s.logger.Info().
		Int("results", len(results)).
		Int("seed_docs", len(seedDocIDs)).
		Msg("Simple RAG seeded")

	plan := models.NewRetrievalPlan(seedDocIDs, models.PlanConstraints{
		MaxDepth:             s.config.MaxDepth,
		AllowedRelationTypes: []models.RelationType{models.RelationDefines},
	})

	plan = ExpandRetrievalPlan(plan, s.listOutgoing(ctx), plan.Constraints)

	s.logger.Info().
		Int("seed_docs", len(plan.SeedDocumentIDs)).
		Int("expanded_docs", len(plan.ExpandedDocumentIDs)).
		Msg("Simple RAG plan expanded")

	// Hydrate expanded documents the vector search did not cover
	for _, docID := range plan.ExpandedDocumentIDs {
		if _, have := chunksByDocument[docID]; have {
			continue
		}
		hydrated, err := s.vectors.SearchByDocument(ctx, docID, 3)
		if err != nil {
			s.logger.Warn().Err(err).Str("document_id", docID).Msg("Failed fetching expanded document chunks")
			continue
		}
		for _, r := range hydrated {
			chunk, ok := chunkFromResult(r)
			if !ok || chunk.DocumentID != docID {
				continue
			}
			chunksByDocument[docID] = append(chunksByDocument[docID], chunk)
		}
	}

	retrieved, err := ExecutePlan(plan, chunksByDocument, s.config.ChunksPerDocument)
	if err != nil {
		return nil, fmt.Errorf("plan execution failed: %w", err)
	}

	agentChunks := PrepareAgentChunks(retrieved, AgentChunkOptions{
		DocumentOrder:   plan.AllowedDocuments(),
		MaxChunksPerDoc: s.config.ChunksPerDocument,
		MaxTotalChunks:  s.config.MaxContextChunks,
		MaxWords:        s.config.ContextWordBudget,
	})

	answer, err := s.generateAnswer(ctx, req, agentChunks)
	if err != nil {
		return nil, err
	}

	return &models.RAGResponse{
		Answer:  answer,
		Sources: orderedSources(agentChunks),
	}, nil
}

// listOutgoing adapts node storage into the expansion callback. Fetch errors
// mean no expansion from that document, never a failed query.
func (s *SimpleService) listOutgoing(ctx context.Context) ListOutgoingFunc {
	return func(documentID string) []OutgoingRelationship {
		rels, err := s.nodes.GetRelationshipsFrom(ctx, documentID)
		if err != nil {
			s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Relationship fetch failed")
			return nil
		}
		out := make([]OutgoingRelationship, 0, len(rels))
		for _, rel := range rels {
			out = append(out, OutgoingRelationship{
				TargetDocumentID: rel.ToDocumentID,
				RelationType:     rel.RelationType,
			})
		}
		return out
	}
}

func (s *SimpleService) generateAnswer(ctx context.Context, req *models.RAGRequest, chunks []RetrievedChunk) (string, error) {
	llm, err := s.resolveLLM(req.Provider)
	if err != nil {
		return "", fmt.Errorf("failed to resolve LLM provider: %w", err)
	}

	contextStr := ""
	for i, chunk := range chunks {
		if i > 0 {
			contextStr += "\n\n"
		}
		contextStr += chunk.Text
	}

	answer, err := llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextStr, req.Query)},
	})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return answer, nil
}
