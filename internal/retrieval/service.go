package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/graph"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

const answerSystemPrompt = "You are a code-aware assistant. Answer the " +
	"question using only the provided context. If the context does not " +
	"contain the answer, say so."

// LLMResolver maps a provider override to an LLM service. Empty provider
// returns the default.
type LLMResolver func(provider string) (interfaces.LLMService, error)

// Service is the hybrid vector + graph RAG path: vector hits seed canonical
// ids, graph traversal expands them, and the plan executor bounds what the
// LLM sees.
type Service struct {
	embedder   interfaces.EmbeddingService
	vectors    interfaces.VectorStorage
	nodes      interfaces.NodeStorage
	graphCache *graph.Cache
	resolveLLM LLMResolver
	config     *common.RetrievalConfig
	logger     arbor.ILogger
}

var _ interfaces.RAGService = (*Service)(nil)

// NewService creates the hybrid retrieval service
func NewService(
	embedder interfaces.EmbeddingService,
	vectors interfaces.VectorStorage,
	nodes interfaces.NodeStorage,
	graphCache *graph.Cache,
	resolveLLM LLMResolver,
	config *common.RetrievalConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		embedder:   embedder,
		vectors:    vectors,
		nodes:      nodes,
		graphCache: graphCache,
		resolveLLM: resolveLLM,
		config:     config,
		logger:     logger,
	}
}

// Answer runs the full hybrid retrieval flow for one query
func (s *Service) Answer(ctx context.Context, req *models.RAGRequest) (*models.RAGResponse, error) {
	repoID, err := s.resolveRepoID(ctx, req.RepoID)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 20
	}

	queryVector, err := s.embedder.GenerateQueryEmbedding(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Code-focused search first; empty results fall back to general search
	results, err := s.vectors.SimilaritySearch(ctx, queryVector, topK, map[string]interface{}{
		"doc_type": models.DocTypeCode,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(results) == 0 {
		s.logger.Info().Msg("No code chunks found, falling back to general search")
		results, err = s.vectors.SimilaritySearch(ctx, queryVector, topK, nil)
		if err != nil {
			return nil, fmt.Errorf("fallback vector search failed: %w", err)
		}
	}

	chunksByDocument := make(map[string][]RetrievedChunk)
	var seedChunks []RetrievedChunk
	var seedDocIDs []string
	for _, r := range results {
		chunk, ok := chunkFromResult(r)
		if !ok {
			continue
		}
		if _, seen := chunksByDocument[chunk.DocumentID]; !seen {
			seedDocIDs = append(seedDocIDs, chunk.DocumentID)
		}
		seedChunks = append(seedChunks, chunk)
		chunksByDocument[chunk.DocumentID] = append(chunksByDocument[chunk.DocumentID], chunk)
	}

	seedCanonicalIDs := ExtractCanonicalIDs(seedChunks)
	s.logger.Info().
		Str("repo_id", repoID).
		Int("seed_chunks", len(seedChunks)).
		Int("seed_canonical_ids", len(seedCanonicalIDs)).
		Msg("Hybrid retrieval seeded")

	// Graph expansion from the most specific seed symbol
	var expandedCanonicalIDs []string
	if len(seedCanonicalIDs) > 0 {
		codebaseGraph, err := s.graphCache.Get(ctx, repoID)
		if err != nil {
			s.logger.Warn().Err(err).Str("repo_id", repoID).Msg("Graph load failed, skipping expansion")
		} else {
			startCID := graph.PickStartCanonicalID(seedCanonicalIDs)
			strategies := graph.SelectStrategies(req.Query)
			for _, node := range graph.ExecuteStrategies(codebaseGraph, startCID, strategies) {
				expandedCanonicalIDs = append(expandedCanonicalIDs, node.CanonicalID)
			}
			sort.Strings(expandedCanonicalIDs)
		}
	}

	// Resolve all canonical ids to document ids, then hydrate the documents
	// the vector search did not already cover.
	allCanonicalIDs := append(append([]string(nil), seedCanonicalIDs...), expandedCanonicalIDs...)
	missingDocIDs := s.resolveMissingDocuments(ctx, repoID, allCanonicalIDs, chunksByDocument)
	for _, docID := range missingDocIDs {
		hydrated, err := s.vectors.SearchByDocument(ctx, docID, 10)
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

	// Expansion provenance is canonical-id based here, so the plan carries
	// seeds only; the graph story lives in the returned summary.
	allowedOrder := append(append([]string(nil), seedDocIDs...), missingDocIDs...)
	plan := models.NewRetrievalPlan(allowedOrder, models.PlanConstraints{MaxDepth: s.config.MaxDepth})

	retrieved, err := ExecutePlan(plan, chunksByDocument, s.config.ChunksPerDocument)
	if err != nil {
		return nil, fmt.Errorf("plan execution failed: %w", err)
	}

	agentChunks := PrepareAgentChunks(retrieved, AgentChunkOptions{
		DocumentOrder:   allowedOrder,
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
		RepoID:  repoID,
		RetrievalPlan: &models.PlanSummary{
			SeedCanonicalIDs:     seedCanonicalIDs,
			ExpandedCanonicalIDs: expandedCanonicalIDs,
			SeedDocs:             len(seedDocIDs),
			ExpandedDocs:         len(missingDocIDs),
			TotalDocs:            len(chunksByDocument),
		},
	}, nil
}

// resolveRepoID validates an explicit repo id or falls back to the most
// recently ingested ready repo.
func (s *Service) resolveRepoID(ctx context.Context, repoID string) (string, error) {
	repos, err := s.nodes.ListRepos(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list repositories: %w", err)
	}

	if repoID != "" {
		for _, repo := range repos {
			if repo.ID == repoID {
				return repoID, nil
			}
		}
		return "", fmt.Errorf("repository %s not found", repoID)
	}

	if len(repos) == 0 {
		return "", fmt.Errorf("no repositories available")
	}
	return repos[0].ID, nil
}

// resolveMissingDocuments maps canonical ids to document ids via node storage
// and returns, in sorted order, the ids not already present in the chunk map.
func (s *Service) resolveMissingDocuments(ctx context.Context, repoID string, canonicalIDs []string, chunksByDocument map[string][]RetrievedChunk) []string {
	if len(canonicalIDs) == 0 {
		return nil
	}
	nodes, err := s.nodes.GetNodesByCanonicalIDs(ctx, repoID, canonicalIDs)
	if err != nil {
		s.logger.Warn().Err(err).Str("repo_id", repoID).Msg("Canonical id resolution failed")
		return nil
	}

	var missing []string
	for _, node := range nodes {
		if _, have := chunksByDocument[node.DocumentID]; !have {
			missing = append(missing, node.DocumentID)
		}
	}
	sort.Strings(missing)
	return missing
}

func (s *Service) generateAnswer(ctx context.Context, req *models.RAGRequest, chunks []RetrievedChunk) (string, error) {
	llm, err := s.resolveLLM(req.Provider)
	if err != nil {
		return "", fmt.Errorf("failed to resolve LLM provider: %w", err)
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	contextStr := strings.Join(parts, "\n\n")

	answer, err := llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextStr, req.Query)},
	})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return answer, nil
}

// orderedSources returns document ids in first-appearance order without
// duplicates.
func orderedSources(chunks []RetrievedChunk) []string {
	seen := make(map[string]bool)
	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if seen[chunk.DocumentID] {
			continue
		}
		seen[chunk.DocumentID] = true
		sources = append(sources, chunk.DocumentID)
	}
	return sources
}
