package chunkers

import (
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

// FixedChunker steps a fixed character window over the text with
// stride = ChunkSize - Overlap, so consecutive chunks share Overlap
// characters.
type FixedChunker struct{}

func (c *FixedChunker) Name() string     { return "text_chunker" }
func (c *FixedChunker) Strategy() string { return StrategyFixed }

func (c *FixedChunker) Chunk(text string, params models.ChunkerParams) []models.Chunk {
	stride := params.ChunkSize - params.Overlap
	if stride < 1 {
		stride = params.ChunkSize
	}

	var chunks []models.Chunk
	for start := 0; start < len(text); start += stride {
		end := start + params.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, models.Chunk{
			ChunkID:  common.NewChunkID(),
			Content:  text[start:end],
			Metadata: map[string]interface{}{},
		})
	}
	return chunks
}
