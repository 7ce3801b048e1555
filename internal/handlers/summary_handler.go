package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// SummaryHandler applies externally generated summaries to ingested documents
type SummaryHandler struct {
	summaries interfaces.SummaryService
	logger    arbor.ILogger
}

// NewSummaryHandler creates the summary handler
func NewSummaryHandler(summaries interfaces.SummaryService, logger arbor.ILogger) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		logger:    logger,
	}
}

// ApplyHandler handles POST /v1/summary
func (h *SummaryHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.SummaryRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.summaries.ApplySummary(r.Context(), req.IngestionID, req.Summary); err != nil {
		if strings.Contains(err.Error(), "no document found") {
			WriteError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("ingestion_id", req.IngestionID).Msg("Failed to apply summary")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to apply summary")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":       "updated",
		"ingestion_id": req.IngestionID,
	})
}
