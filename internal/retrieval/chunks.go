package retrieval

import (
	"sort"

	"github.com/ternarybob/contexo/internal/models"
)

// RetrievedChunk is one chunk in flight through the retrieval pipeline,
// carrying full provenance so canonical ids survive to plan building.
type RetrievedChunk struct {
	DocumentID string                 `json:"document_id"`
	ChunkID    string                 `json:"chunk_id"`
	Text       string                 `json:"text"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievedContext holds plan-executed chunks grouped by document
type RetrievedContext struct {
	ChunksByDocument map[string][]RetrievedChunk
}

// chunkFromResult converts a vector store hit, recovering document_id from
// metadata when the column is empty.
func chunkFromResult(r models.VectorSearchResult) (RetrievedChunk, bool) {
	docID := r.DocumentID
	if docID == "" {
		if v, ok := r.Metadata["document_id"].(string); ok {
			docID = v
		}
	}
	if docID == "" {
		return RetrievedChunk{}, false
	}
	return RetrievedChunk{
		DocumentID: docID,
		ChunkID:    r.ChunkID,
		Text:       r.Text,
		Score:      r.Score,
		Metadata:   r.Metadata,
	}, true
}

// ExtractCanonicalIDs collects canonical ids from chunk metadata, checking
// both the top-level key and the nested source_metadata map. The result is
// sorted for determinism.
func ExtractCanonicalIDs(chunks []RetrievedChunk) []string {
	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.Metadata == nil {
			continue
		}
		cid, _ := chunk.Metadata["canonical_id"].(string)
		if cid == "" {
			if nested, ok := chunk.Metadata["source_metadata"].(map[string]interface{}); ok {
				cid, _ = nested["canonical_id"].(string)
			}
		}
		if cid != "" {
			seen[cid] = true
		}
	}
	out := make([]string, 0, len(seen))
	for cid := range seen {
		out = append(out, cid)
	}
	sort.Strings(out)
	return out
}
