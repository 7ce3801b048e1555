package scheduler

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
)

// SupervisorJobName identifies the stuck-ingestion sweep in the scheduler
const SupervisorJobName = "ingestion_supervisor"

// NewSupervisorJob builds the sweep handler that marks running ingestions
// older than the configured stuck duration as failed. Covers workers lost to
// crashes or restarts, whose rows would otherwise stay running forever.
func NewSupervisorJob(config *common.Config, ingestions interfaces.IngestionStorage, logger arbor.ILogger) func() error {
	return func() error {
		ctx := context.Background()
		stuckAge := config.StuckAge()

		stuck, err := ingestions.ListStuck(ctx, int64(stuckAge.Seconds()))
		if err != nil {
			return fmt.Errorf("failed to list stuck ingestions: %w", err)
		}
		if len(stuck) == 0 {
			return nil
		}

		logger.Warn().
			Int("count", len(stuck)).
			Str("stuck_age", stuckAge.String()).
			Msg("Detected stuck ingestions")

		for _, req := range stuck {
			msg := fmt.Sprintf("ingestion exceeded %s without completing", stuckAge)
			if err := ingestions.MarkFailed(ctx, req.IngestionID, msg); err != nil {
				logger.Error().
					Err(err).
					Str("ingestion_id", req.IngestionID).
					Msg("Failed to mark stuck ingestion failed")
				continue
			}
			logger.Info().
				Str("ingestion_id", req.IngestionID).
				Str("source_type", req.SourceType).
				Msg("Marked stuck ingestion failed")
		}

		return nil
	}
}
