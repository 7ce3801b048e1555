package chunkers

import (
	"strings"
	"unicode"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

// SentenceChunker packs whole sentences greedily into buffers of at most
// ChunkSize characters. A sentence ends at '.', '!' or '?' followed by
// whitespace. Overlap is accepted for uniformity but unused.
type SentenceChunker struct{}

func (c *SentenceChunker) Name() string     { return "text_chunker" }
func (c *SentenceChunker) Strategy() string { return StrategySentence }

func (c *SentenceChunker) Chunk(text string, params models.ChunkerParams) []models.Chunk {
	sentences := splitSentences(text)

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

	for _, sentence := range sentences {
		if buffer.Len()+len(sentence) > params.ChunkSize {
			flush()
			buffer.WriteString(sentence)
			continue
		}
		if buffer.Len() > 0 {
			buffer.WriteString(" ")
		}
		buffer.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitSentences splits at whitespace runs that follow a terminal punctuation
// character, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0
	runes := []rune(text)

	for i < len(runes) {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			sentences = append(sentences, string(runes[start:i+1]))
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
