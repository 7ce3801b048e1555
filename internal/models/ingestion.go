package models

import (
	"fmt"
	"time"
)

// Source type values recorded on ingestion requests and chunk provenance
const (
	SourceTypeFile = "file"
	SourceTypeCode = "code"
)

// IngestionSourceTag builds the source value stamped on nodes created by a
// single-document ingestion. Summarization finds the node by this tag.
func IngestionSourceTag(sourceType, ingestionID string) string {
	return fmt.Sprintf("%s_document_%s", sourceType, ingestionID)
}

// IngestionStatus is the observable lifecycle state of an ingestion request
type IngestionStatus string

const (
	IngestionAccepted  IngestionStatus = "accepted"
	IngestionRunning   IngestionStatus = "running"
	IngestionCompleted IngestionStatus = "completed"
	IngestionFailed    IngestionStatus = "failed"
)

// IsTerminal reports whether the status is a terminal state
func (s IngestionStatus) IsTerminal() bool {
	return s == IngestionCompleted || s == IngestionFailed
}

// IngestionRequest tracks one background ingestion. The row is created with
// status accepted before the worker is spawned so the status endpoint can
// always observe it; worker errors land in Metadata["error"], never in the
// HTTP response that accepted the request.
type IngestionRequest struct {
	IngestionID string                 `json:"ingestion_id"`
	SourceType  string                 `json:"source_type"`
	Status      IngestionStatus        `json:"status"`
	Metadata    map[string]interface{} `json:"ingestion_metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
}
