package chunkers

import (
	"fmt"

	"github.com/ternarybob/contexo/internal/models"
)

// Chunker splits text into chunks under one named strategy. Implementations
// are stateless; sizing comes from params on every call.
type Chunker interface {
	// Name identifies the chunker implementation for provenance metadata
	Name() string
	// Strategy identifies the packing strategy for provenance metadata
	Strategy() string
	// Chunk splits text into chunks per the strategy and params
	Chunk(text string, params models.ChunkerParams) []models.Chunk
}

// ErrUnknownStrategy is returned by Get for strategy names outside the registry
type ErrUnknownStrategy struct {
	Strategy string
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("unknown chunk strategy: %s", e.Strategy)
}

var registry = map[string]Chunker{
	StrategySentence:  &SentenceChunker{},
	StrategyParagraph: &ParagraphChunker{},
	StrategyFixed:     &FixedChunker{},
}

const (
	StrategySentence  = "sentence"
	StrategyParagraph = "paragraph"
	StrategyFixed     = "fixed_char"
)

// Get returns the chunker registered under the given strategy name
func Get(strategy string) (Chunker, error) {
	chunker, ok := registry[strategy]
	if !ok {
		return nil, &ErrUnknownStrategy{Strategy: strategy}
	}
	return chunker, nil
}

// Select chooses a strategy by text length: short texts pack sentences,
// medium texts pack paragraphs, long texts use a fixed character window.
func Select(text string) (Chunker, models.ChunkerParams) {
	switch {
	case len(text) < 2000:
		return registry[StrategySentence], models.ChunkerParams{ChunkSize: 200, Overlap: 20}
	case len(text) < 10000:
		return registry[StrategyParagraph], models.ChunkerParams{ChunkSize: 500, Overlap: 50}
	default:
		return registry[StrategyFixed], models.ChunkerParams{ChunkSize: 1000, Overlap: 100}
	}
}
