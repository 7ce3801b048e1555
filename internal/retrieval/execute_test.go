package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/models"
)

func chunk(docID, chunkID, text string) RetrievedChunk {
	return RetrievedChunk{DocumentID: docID, ChunkID: chunkID, Text: text}
}

func TestExecutePlanHonorsBoundary(t *testing.T) {
	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})

	chunks := map[string][]RetrievedChunk{
		"doc_a": {chunk("doc_a", "c1", "alpha")},
		"doc_b": {chunk("doc_b", "c2", "beta")},
	}

	out, err := ExecutePlan(plan, chunks, 5)
	require.NoError(t, err)
	assert.Len(t, out.ChunksByDocument["doc_a"], 1)
	_, present := out.ChunksByDocument["doc_b"]
	assert.False(t, present, "documents outside the plan must not appear")
}

func TestExecutePlanMisfiledChunkIsHardError(t *testing.T) {
	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})

	chunks := map[string][]RetrievedChunk{
		"doc_a": {chunk("doc_b", "c1", "leaked")},
	}

	_, err := ExecutePlan(plan, chunks, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieved chunk from document doc_b, expected doc_a")
}

func TestExecutePlanCapsPerDocument(t *testing.T) {
	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})

	chunks := map[string][]RetrievedChunk{
		"doc_a": {
			chunk("doc_a", "c1", "one"),
			chunk("doc_a", "c2", "two"),
			chunk("doc_a", "c3", "three"),
		},
	}

	out, err := ExecutePlan(plan, chunks, 2)
	require.NoError(t, err)
	require.Len(t, out.ChunksByDocument["doc_a"], 2)
	assert.Equal(t, "c1", out.ChunksByDocument["doc_a"][0].ChunkID)
	assert.Equal(t, "c2", out.ChunksByDocument["doc_a"][1].ChunkID)
}

func TestPrepareAgentChunksDocumentOrder(t *testing.T) {
	retrieved := RetrievedContext{ChunksByDocument: map[string][]RetrievedChunk{
		"doc_a": {chunk("doc_a", "a1", "alpha")},
		"doc_b": {chunk("doc_b", "b1", "beta")},
	}}

	out := PrepareAgentChunks(retrieved, AgentChunkOptions{DocumentOrder: []string{"doc_b", "doc_a"}})
	require.Len(t, out, 2)
	assert.Equal(t, "b1", out[0].ChunkID)
	assert.Equal(t, "a1", out[1].ChunkID)

	// Empty order falls back to sorted document ids
	sorted := PrepareAgentChunks(retrieved, AgentChunkOptions{})
	assert.Equal(t, "a1", sorted[0].ChunkID)
}

func TestPrepareAgentChunksWordBudget(t *testing.T) {
	retrieved := RetrievedContext{ChunksByDocument: map[string][]RetrievedChunk{
		"doc_a": {
			chunk("doc_a", "a1", "one two three"),
			chunk("doc_a", "a2", "four five six"),
		},
	}}

	out := PrepareAgentChunks(retrieved, AgentChunkOptions{MaxWords: 4})
	require.Len(t, out, 1, "second chunk would exceed the word budget")
	assert.Equal(t, "a1", out[0].ChunkID)
}

func TestPrepareAgentChunksCapsAndFilter(t *testing.T) {
	retrieved := RetrievedContext{ChunksByDocument: map[string][]RetrievedChunk{
		"doc_a": {
			chunk("doc_a", "a1", "keep"),
			chunk("doc_a", "a2", "drop"),
			chunk("doc_a", "a3", "keep"),
		},
	}}

	out := PrepareAgentChunks(retrieved, AgentChunkOptions{
		MaxChunksPerDoc: 3,
		MaxTotalChunks:  2,
		Filter:          func(c RetrievedChunk) bool { return c.Text == "keep" },
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].ChunkID)
	assert.Equal(t, "a3", out[1].ChunkID)
}
