package interfaces

import (
	"context"
)

// SummaryService generates document summaries after ingestion completes
type SummaryService interface {
	// SummarizeIngestion generates a summary for the document created by the
	// given ingestion and stores it on the node. Best-effort: callers log
	// failures and continue.
	SummarizeIngestion(ctx context.Context, ingestionID string) error

	// ApplySummary stores a caller-provided summary on the node created by
	// the given ingestion
	ApplySummary(ctx context.Context, ingestionID string, summary string) error
}
