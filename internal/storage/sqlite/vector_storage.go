package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// VectorStorage implements interfaces.VectorStorage over the vector_chunks
// table, dual-writing every record into the legacy vectors table. Similarity
// is a brute-force cosine scan in Go; vectors are stored as JSON arrays.
type VectorStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.VectorStorage = (*VectorStorage)(nil)

// NewVectorStorage creates a new vector storage instance
func NewVectorStorage(db *SQLiteDB, logger arbor.ILogger) *VectorStorage {
	return &VectorStorage{
		db:     db,
		logger: logger,
	}
}

// Add inserts a batch of vector records. Records carrying a document_id land
// in vector_chunks; every record also lands in the legacy vectors table.
func (v *VectorStorage) Add(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_chunks (chunk_id, document_id, ingestion_id, chunk_index,
			chunk_strategy, chunk_text, vector, source_metadata, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	legacyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (chunk_id, ingestion_id, chunk_index,
			chunk_strategy, chunk_text, vector, source_metadata, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare legacy insert: %w", err)
	}
	defer legacyStmt.Close()

	now := time.Now().Unix()
	for _, record := range records {
		vectorJSON, err := json.Marshal(record.Vector)
		if err != nil {
			return fmt.Errorf("failed to marshal vector: %w", err)
		}
		metadataJSON, err := json.Marshal(record.Metadata.SourceMetadata)
		if err != nil {
			return fmt.Errorf("failed to marshal source metadata: %w", err)
		}

		m := record.Metadata
		if _, err := legacyStmt.ExecContext(ctx,
			m.ChunkID, m.IngestionID, m.ChunkIndex, m.ChunkStrategy, m.ChunkText,
			string(vectorJSON), string(metadataJSON), m.Provider, now); err != nil {
			return fmt.Errorf("failed to insert legacy vector %s: %w", m.ChunkID, err)
		}

		if m.DocumentID != "" {
			if _, err := chunkStmt.ExecContext(ctx,
				m.ChunkID, m.DocumentID, m.IngestionID, m.ChunkIndex, m.ChunkStrategy,
				m.ChunkText, string(vectorJSON), string(metadataJSON), m.Provider, now); err != nil {
				return fmt.Errorf("failed to insert vector chunk %s: %w", m.ChunkID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	v.logger.Debug().Int("records", len(records)).Msg("Stored vector records")
	return nil
}

// SimilaritySearch scans all chunks matching the metadata filter and returns
// the top k by cosine similarity.
func (v *VectorStorage) SimilaritySearch(ctx context.Context, queryVector []float32, k int, metadataFilter map[string]interface{}) ([]models.VectorSearchResult, error) {
	rows, err := v.db.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, ingestion_id, chunk_index, chunk_strategy,
		       chunk_text, vector, source_metadata, provider
		FROM vector_chunks`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector chunks: %w", err)
	}
	defer rows.Close()

	var results []models.VectorSearchResult
	for rows.Next() {
		result, vector, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		if !matchesFilter(result.Metadata, metadataFilter) {
			continue
		}
		result.Score = cosineSimilarity(queryVector, vector)
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchByDocument fetches up to k chunks for one document ordered by
// chunk_index ascending. Not a ranked search.
func (v *VectorStorage) SearchByDocument(ctx context.Context, documentID string, k int) ([]models.VectorSearchResult, error) {
	rows, err := v.db.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, ingestion_id, chunk_index, chunk_strategy,
		       chunk_text, vector, source_metadata, provider
		FROM vector_chunks
		WHERE document_id = ?
		ORDER BY chunk_index ASC
		LIMIT ?`, documentID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks for document %s: %w", documentID, err)
	}
	defer rows.Close()

	var results []models.VectorSearchResult
	for rows.Next() {
		result, _, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

// DeleteByIngestionID purges both the chunk and legacy tables for one ingestion
func (v *VectorStorage) DeleteByIngestionID(ctx context.Context, ingestionID string) error {
	for _, table := range []string{"vector_chunks", "vectors"} {
		if _, err := v.db.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE ingestion_id = ?`, ingestionID); err != nil {
			return fmt.Errorf("failed to delete from %s for ingestion %s: %w", table, ingestionID, err)
		}
	}
	return nil
}

func scanChunk(rows rowScanner) (*models.VectorSearchResult, []float32, error) {
	var chunkID, documentID, ingestionID, chunkStrategy, chunkText string
	var vectorJSON, metadataJSON, provider string
	var chunkIndex int

	if err := rows.Scan(&chunkID, &documentID, &ingestionID, &chunkIndex, &chunkStrategy,
		&chunkText, &vectorJSON, &metadataJSON, &provider); err != nil {
		return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal vector for chunk %s: %w", chunkID, err)
	}

	metadata := map[string]interface{}{}
	if metadataJSON != "" {
		json.Unmarshal([]byte(metadataJSON), &metadata)
	}
	metadata["ingestion_id"] = ingestionID
	metadata["chunk_index"] = chunkIndex
	metadata["chunk_strategy"] = chunkStrategy
	metadata["provider"] = provider

	return &models.VectorSearchResult{
		ChunkID:    chunkID,
		Text:       chunkText,
		DocumentID: documentID,
		Metadata:   metadata,
	}, vector, nil
}

// matchesFilter evaluates the metadata predicate forms against a chunk's
// source metadata: equality, {"ne": v} where a missing key matches, and
// {"in": [...]}.
func matchesFilter(metadata map[string]interface{}, filter map[string]interface{}) bool {
	for key, predicate := range filter {
		value, present := metadata[key]

		switch pred := predicate.(type) {
		case map[string]interface{}:
			if ne, ok := pred["ne"]; ok {
				if present && equalValues(value, ne) {
					return false
				}
				continue
			}
			if in, ok := pred["in"]; ok {
				list, ok := in.([]interface{})
				if !ok {
					return false
				}
				found := false
				for _, candidate := range list {
					if present && equalValues(value, candidate) {
						found = true
						break
					}
				}
				if !found {
					return false
				}
				continue
			}
			return false
		default:
			if !present || !equalValues(value, predicate) {
				return false
			}
		}
	}
	return true
}

// equalValues compares metadata values by string form, tolerating the
// string/float64 drift JSON round-trips introduce.
func equalValues(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// cosineSimilarity computes the cosine of the angle between two vectors;
// mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
