package retrieval

import (
	"fmt"
	"sort"

	"github.com/ternarybob/contexo/internal/models"
)

// ExecutePlan materializes a plan's document boundary from pre-fetched
// chunks. Only documents the plan allows are considered, in the plan's
// stable seeds-then-expanded order, capped at topKPerDocument chunks each.
// A chunk filed under the wrong document is a hard error: the boundary must
// never leak.
func ExecutePlan(plan models.RetrievalPlan, chunksByDocument map[string][]RetrievedChunk, topKPerDocument int) (RetrievedContext, error) {
	if topKPerDocument <= 0 {
		topKPerDocument = 5
	}

	out := RetrievedContext{ChunksByDocument: make(map[string][]RetrievedChunk)}

	for _, documentID := range plan.AllowedDocuments() {
		chunks := chunksByDocument[documentID]
		if len(chunks) > topKPerDocument {
			chunks = chunks[:topKPerDocument]
		}
		for _, chunk := range chunks {
			if chunk.DocumentID != documentID {
				return RetrievedContext{}, fmt.Errorf(
					"retrieved chunk from document %s, expected %s", chunk.DocumentID, documentID)
			}
		}
		out.ChunksByDocument[documentID] = chunks
	}

	return out, nil
}

// AgentChunkOptions bound the flattening of retrieved context into the
// ordered chunk list handed to the LLM.
type AgentChunkOptions struct {
	// DocumentOrder fixes iteration order (seeds first). Empty means sorted
	// document ids.
	DocumentOrder   []string
	MaxChunksPerDoc int
	MaxTotalChunks  int
	// MaxWords is an approximate token budget counted in whitespace words.
	// Zero means unlimited.
	MaxWords int
	// Filter drops chunks it returns false for. Nil keeps everything.
	Filter func(RetrievedChunk) bool
}

// PrepareAgentChunks flattens retrieved context deterministically: documents
// in the given order, per-document and total caps, optional filter, and an
// optional word budget that stops accumulation once exceeded.
func PrepareAgentChunks(retrieved RetrievedContext, opts AgentChunkOptions) []RetrievedChunk {
	order := opts.DocumentOrder
	if len(order) == 0 {
		order = sortedDocumentIDs(retrieved.ChunksByDocument)
	}
	maxPerDoc := opts.MaxChunksPerDoc
	if maxPerDoc <= 0 {
		maxPerDoc = 5
	}
	maxTotal := opts.MaxTotalChunks
	if maxTotal <= 0 {
		maxTotal = 50
	}

	var final []RetrievedChunk
	totalWords := 0

	for _, docID := range order {
		chunks := retrieved.ChunksByDocument[docID]
		if len(chunks) == 0 {
			continue
		}
		if len(chunks) > maxPerDoc {
			chunks = chunks[:maxPerDoc]
		}
		for _, chunk := range chunks {
			if opts.Filter != nil && !opts.Filter(chunk) {
				continue
			}
			words := wordCount(chunk.Text)
			if opts.MaxWords > 0 && totalWords+words > opts.MaxWords {
				return final
			}
			final = append(final, chunk)
			totalWords += words
			if len(final) >= maxTotal {
				return final
			}
		}
	}

	return final
}

func sortedDocumentIDs(m map[string][]RetrievedChunk) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}
