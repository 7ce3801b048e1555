package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

func TestMatchesFilter(t *testing.T) {
	metadata := map[string]interface{}{
		"doc_type": "code",
		"repo_id":  "r1",
	}

	tests := []struct {
		name     string
		filter   map[string]interface{}
		expected bool
	}{
		{name: "Nil filter matches", filter: nil, expected: true},
		{name: "Equality match", filter: map[string]interface{}{"doc_type": "code"}, expected: true},
		{name: "Equality mismatch", filter: map[string]interface{}{"doc_type": "prose"}, expected: false},
		{name: "Missing key fails equality", filter: map[string]interface{}{"lang": "go"}, expected: false},
		{
			name:     "ne excludes matching value",
			filter:   map[string]interface{}{"doc_type": map[string]interface{}{"ne": "code"}},
			expected: false,
		},
		{
			name:     "ne matches when key missing",
			filter:   map[string]interface{}{"source_type": map[string]interface{}{"ne": "code"}},
			expected: true,
		},
		{
			name:     "in matches listed value",
			filter:   map[string]interface{}{"repo_id": map[string]interface{}{"in": []interface{}{"r1", "r2"}}},
			expected: true,
		},
		{
			name:     "in rejects unlisted value",
			filter:   map[string]interface{}{"repo_id": map[string]interface{}{"in": []interface{}{"r9"}}},
			expected: false,
		},
		{
			name:     "Unknown predicate form rejects",
			filter:   map[string]interface{}{"repo_id": map[string]interface{}{"gt": "a"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesFilter(metadata, tt.filter))
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}), "mismatched lengths score zero")
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 2}), "zero vector scores zero")
}

// seedNodes satisfies the vector_chunks foreign key before chunk inserts
func seedNodes(t *testing.T, db *SQLiteDB, documentIDs ...string) {
	t.Helper()
	nodes := NewNodeStorage(db, common.GetLogger())
	for _, docID := range documentIDs {
		require.NoError(t, nodes.UpsertNode(context.Background(), &models.DocumentNode{
			DocumentID:  docID,
			RepoID:      "repo_test",
			CanonicalID: docID + ".py",
			DocType:     "code",
			IngestionID: "ing_seed",
		}))
	}
}

func testRecord(chunkID, docID, ingestionID string, index int, vector []float32, sourceMetadata map[string]interface{}) models.VectorRecord {
	return models.VectorRecord{
		Vector: vector,
		Metadata: models.VectorMetadata{
			IngestionID:    ingestionID,
			ChunkID:        chunkID,
			ChunkIndex:     index,
			ChunkStrategy:  "fixed",
			ChunkText:      "text for " + chunkID,
			SourceMetadata: sourceMetadata,
			Provider:       "mock",
			DocumentID:     docID,
		},
	}
}

func TestVectorStorageSimilaritySearchWithFilter(t *testing.T) {
	db := newTestDB(t)
	seedNodes(t, db, "doc_code", "doc_prose", "doc_far")
	store := NewVectorStorage(db, common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []models.VectorRecord{
		testRecord("c1", "doc_code", "ing_1", 0, []float32{1, 0},
			map[string]interface{}{"doc_type": "code"}),
		testRecord("c2", "doc_prose", "ing_1", 0, []float32{1, 0},
			map[string]interface{}{"doc_type": "prose"}),
		testRecord("c3", "doc_far", "ing_1", 0, []float32{0, 1},
			map[string]interface{}{"doc_type": "code"}),
	}))

	results, err := store.SimilaritySearch(ctx, []float32{1, 0}, 10,
		map[string]interface{}{"doc_type": "code"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ChunkID, "closest match first")
	assert.Equal(t, "doc_code", results[0].DocumentID)

	// k caps the result set
	capped, err := store.SimilaritySearch(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestVectorStorageSearchByDocument(t *testing.T) {
	db := newTestDB(t)
	seedNodes(t, db, "doc_a", "doc_b")
	store := NewVectorStorage(db, common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []models.VectorRecord{
		testRecord("c2", "doc_a", "ing_1", 1, []float32{1}, nil),
		testRecord("c1", "doc_a", "ing_1", 0, []float32{1}, nil),
		testRecord("c3", "doc_b", "ing_1", 0, []float32{1}, nil),
	}))

	results, err := store.SearchByDocument(ctx, "doc_a", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ChunkID, "chunk_index order, not insertion order")
	assert.Equal(t, "c2", results[1].ChunkID)
}

func TestVectorStorageDeleteByIngestionID(t *testing.T) {
	db := newTestDB(t)
	seedNodes(t, db, "doc_a", "doc_b")
	store := NewVectorStorage(db, common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []models.VectorRecord{
		testRecord("c1", "doc_a", "ing_1", 0, []float32{1}, nil),
		testRecord("c2", "doc_b", "ing_2", 0, []float32{1}, nil),
	}))

	require.NoError(t, store.DeleteByIngestionID(ctx, "ing_1"))

	remaining, err := store.SimilaritySearch(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "c2", remaining[0].ChunkID)
}
