package chunkers

import (
	"strings"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

// ParagraphChunker packs whole paragraphs (blocks separated by blank lines)
// until the next paragraph would overflow ChunkSize. A single paragraph
// larger than ChunkSize becomes a chunk by itself. Overlap is unused.
type ParagraphChunker struct{}

func (c *ParagraphChunker) Name() string     { return "text_chunker" }
func (c *ParagraphChunker) Strategy() string { return StrategyParagraph }

func (c *ParagraphChunker) Chunk(text string, params models.ChunkerParams) []models.Chunk {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []models.Chunk
	var buffer strings.Builder

	flush := func() {
		if buffer.Len() > 0 {
			chunks = append(chunks, models.Chunk{
				ChunkID:  common.NewChunkID(),
				Content:  buffer.String(),
				Metadata: map[string]interface{}{},
			})
			buffer.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if buffer.Len()+len(para) > params.ChunkSize {
			flush()
			buffer.WriteString(para)
			continue
		}
		if buffer.Len() > 0 {
			buffer.WriteString("\n\n")
		}
		buffer.WriteString(para)
	}
	flush()

	return chunks
}
