package chunkers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/models"
)

func TestSelectByLength(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		strategy string
	}{
		{name: "Short text packs sentences", text: strings.Repeat("a", 100), strategy: StrategySentence},
		{name: "Medium text packs paragraphs", text: strings.Repeat("a", 5000), strategy: StrategyParagraph},
		{name: "Long text uses fixed window", text: strings.Repeat("a", 20000), strategy: StrategyFixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker, params := Select(tt.text)
			assert.Equal(t, tt.strategy, chunker.Strategy())
			assert.Greater(t, params.ChunkSize, 0)
		})
	}
}

func TestGetUnknownStrategy(t *testing.T) {
	_, err := Get("semantic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chunk strategy")

	chunker, err := Get(StrategyFixed)
	require.NoError(t, err)
	assert.Equal(t, StrategyFixed, chunker.Strategy())
}

func TestFixedChunkerWindowAndOverlap(t *testing.T) {
	text := "abcdefghij" // 10 chars
	chunks := (&FixedChunker{}).Chunk(text, models.ChunkerParams{ChunkSize: 4, Overlap: 1})

	// stride 3: abcd, defg, ghij, j
	require.Len(t, chunks, 4)
	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "defg", chunks[1].Content)
	assert.Equal(t, "ghij", chunks[2].Content)
	assert.Equal(t, "j", chunks[3].Content)

	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.ChunkID)
	}
}

func TestFixedChunkerDegenerateOverlap(t *testing.T) {
	// Overlap >= ChunkSize must not loop forever
	chunks := (&FixedChunker{}).Chunk("abcdef", models.ChunkerParams{ChunkSize: 3, Overlap: 3})
	require.Len(t, chunks, 2)
	assert.Equal(t, "abc", chunks[0].Content)
	assert.Equal(t, "def", chunks[1].Content)
}

func TestSentenceChunkerPacksWholeSentences(t *testing.T) {
	text := "One fish. Two fish! Red fish? Blue fish."
	chunks := (&SentenceChunker{}).Chunk(text, models.ChunkerParams{ChunkSize: 20})

	require.NotEmpty(t, chunks)
	assert.Equal(t, "One fish. Two fish!", chunks[0].Content)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 20)
	}
}

func TestSentenceChunkerSingleOversizeSentence(t *testing.T) {
	text := "This single sentence is much longer than the chunk size allows."
	chunks := (&SentenceChunker{}).Chunk(text, models.ChunkerParams{ChunkSize: 10})

	// An oversize sentence still becomes one chunk rather than being split
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
}

func TestParagraphChunkerPacksBlocks(t *testing.T) {
	text := "first block\n\nsecond block\n\nthird block"
	chunks := (&ParagraphChunker{}).Chunk(text, models.ChunkerParams{ChunkSize: 26})

	require.Len(t, chunks, 2)
	assert.Equal(t, "first block\n\nsecond block", chunks[0].Content)
	assert.Equal(t, "third block", chunks[1].Content)
}

func TestParagraphChunkerSkipsEmptyBlocks(t *testing.T) {
	text := "alpha\n\n\n\n\n\nbeta"
	chunks := (&ParagraphChunker{}).Chunk(text, models.ChunkerParams{ChunkSize: 100})

	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha\n\nbeta", chunks[0].Content)
}
