package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// IngestionStorage implements interfaces.IngestionStorage over the
// ingestion_requests table.
type IngestionStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.IngestionStorage = (*IngestionStorage)(nil)

// NewIngestionStorage creates a new ingestion storage instance
func NewIngestionStorage(db *SQLiteDB, logger arbor.ILogger) *IngestionStorage {
	return &IngestionStorage{
		db:     db,
		logger: logger,
	}
}

// Create persists a new request; the row must exist before any worker starts
// so the status endpoint can always observe it.
func (s *IngestionStorage) Create(ctx context.Context, req *models.IngestionRequest) error {
	if req.Status == "" {
		req.Status = models.IngestionAccepted
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	metadataJSON, err := json.Marshal(req.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion metadata: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO ingestion_requests (ingestion_id, source_type, status, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.IngestionID, req.SourceType, string(req.Status), string(metadataJSON), req.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create ingestion request %s: %w", req.IngestionID, err)
	}
	return nil
}

// Get retrieves a request by id; nil when not found
func (s *IngestionStorage) Get(ctx context.Context, ingestionID string) (*models.IngestionRequest, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT ingestion_id, source_type, status, metadata, created_at, started_at, finished_at
		FROM ingestion_requests WHERE ingestion_id = ?`, ingestionID)

	var req models.IngestionRequest
	var status, metadataJSON string
	var createdAt int64
	var startedAt, finishedAt sql.NullInt64

	err := row.Scan(&req.IngestionID, &req.SourceType, &status, &metadataJSON,
		&createdAt, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingestion request: %w", err)
	}

	req.Status = models.IngestionStatus(status)
	req.CreatedAt = time.Unix(createdAt, 0)
	if startedAt.Valid {
		t := time.Unix(startedAt.Int64, 0)
		req.StartedAt = &t
	}
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0)
		req.FinishedAt = &t
	}
	if metadataJSON != "" {
		json.Unmarshal([]byte(metadataJSON), &req.Metadata)
	}
	return &req, nil
}

// MarkRunning transitions a request to running and stamps started_at
func (s *IngestionStorage) MarkRunning(ctx context.Context, ingestionID string) error {
	return s.transition(ctx, ingestionID, models.IngestionRunning,
		`UPDATE ingestion_requests SET status = ?, started_at = ? WHERE ingestion_id = ?`)
}

// MarkCompleted transitions a request to completed and stamps finished_at
func (s *IngestionStorage) MarkCompleted(ctx context.Context, ingestionID string) error {
	return s.transition(ctx, ingestionID, models.IngestionCompleted,
		`UPDATE ingestion_requests SET status = ?, finished_at = ? WHERE ingestion_id = ?`)
}

// MarkFailed transitions a request to failed, recording the error in metadata
func (s *IngestionStorage) MarkFailed(ctx context.Context, ingestionID string, errMsg string) error {
	req, err := s.Get(ctx, ingestionID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("ingestion request not found: %s", ingestionID)
	}

	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}
	req.Metadata["error"] = errMsg
	metadataJSON, err := json.Marshal(req.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion metadata: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		UPDATE ingestion_requests SET status = ?, metadata = ?, finished_at = ?
		WHERE ingestion_id = ?`,
		string(models.IngestionFailed), string(metadataJSON), time.Now().Unix(), ingestionID)
	if err != nil {
		return fmt.Errorf("failed to mark ingestion %s failed: %w", ingestionID, err)
	}
	return nil
}

// ListStuck returns running requests whose started_at is older than the cutoff
func (s *IngestionStorage) ListStuck(ctx context.Context, olderThanSeconds int64) ([]*models.IngestionRequest, error) {
	cutoff := time.Now().Unix() - olderThanSeconds

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT ingestion_id, source_type, status, metadata, created_at, started_at, finished_at
		FROM ingestion_requests
		WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		string(models.IngestionRunning), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck ingestions: %w", err)
	}
	defer rows.Close()

	var stuck []*models.IngestionRequest
	for rows.Next() {
		var req models.IngestionRequest
		var status, metadataJSON string
		var createdAt int64
		var startedAt, finishedAt sql.NullInt64

		if err := rows.Scan(&req.IngestionID, &req.SourceType, &status, &metadataJSON,
			&createdAt, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion request: %w", err)
		}
		req.Status = models.IngestionStatus(status)
		req.CreatedAt = time.Unix(createdAt, 0)
		if startedAt.Valid {
			t := time.Unix(startedAt.Int64, 0)
			req.StartedAt = &t
		}
		if metadataJSON != "" {
			json.Unmarshal([]byte(metadataJSON), &req.Metadata)
		}
		stuck = append(stuck, &req)
	}
	return stuck, rows.Err()
}

func (s *IngestionStorage) transition(ctx context.Context, ingestionID string, status models.IngestionStatus, query string) error {
	result, err := s.db.db.ExecContext(ctx, query, string(status), time.Now().Unix(), ingestionID)
	if err != nil {
		return fmt.Errorf("failed to mark ingestion %s %s: %w", ingestionID, status, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("ingestion request not found: %s", ingestionID)
	}
	return nil
}
