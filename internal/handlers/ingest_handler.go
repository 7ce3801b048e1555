package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/extractors"
	"github.com/ternarybob/contexo/internal/identity"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// IngestHandler accepts upload and repository ingestion requests. Both
// endpoints return 202 immediately; the work runs in a background goroutine
// and reports only through ingestion storage.
type IngestHandler struct {
	config     *common.Config
	ingestions interfaces.IngestionStorage
	pipeline   interfaces.IngestService
	pdf        interfaces.PDFExtractor
	html       *extractors.HTMLConverter
	fetcher    interfaces.RepoFetcher
	summaries  interfaces.SummaryService
	logger     arbor.ILogger
}

// NewIngestHandler creates the ingestion handler
func NewIngestHandler(
	config *common.Config,
	ingestions interfaces.IngestionStorage,
	pipeline interfaces.IngestService,
	pdf interfaces.PDFExtractor,
	html *extractors.HTMLConverter,
	fetcher interfaces.RepoFetcher,
	summaries interfaces.SummaryService,
	logger arbor.ILogger,
) *IngestHandler {
	return &IngestHandler{
		config:     config,
		ingestions: ingestions,
		pipeline:   pipeline,
		pdf:        pdf,
		html:       html,
		fetcher:    fetcher,
		summaries:  summaries,
		logger:     logger,
	}
}

// IngestFileHandler handles POST /v1/ingest/file (multipart: file, metadata)
func (h *IngestHandler) IngestFileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Ingest.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.Ingest.MaxUploadBytes); err != nil {
		WriteErrorDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid multipart request", err.Error())
		return
	}

	metadata := map[string]interface{}{}
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid metadata JSON")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "missing file field")
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		WriteErrorDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"failed to read uploaded file", err.Error())
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = "unknown"
	}
	metadata["filename"] = filename

	ingestionID := common.NewIngestionID()
	req := &models.IngestionRequest{
		IngestionID: ingestionID,
		SourceType:  models.SourceTypeFile,
		Status:      models.IngestionAccepted,
		Metadata:    metadata,
	}
	if err := h.ingestions.Create(r.Context(), req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create ingestion request")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create ingestion request")
		return
	}

	common.SafeGo(h.logger, "ingestFile", func() {
		h.runFileIngestion(context.Background(), ingestionID, filename, fileBytes, metadata)
	})

	WriteJSON(w, http.StatusAccepted, models.IngestAcceptedResponse{
		IngestionID: ingestionID,
		Status:      models.IngestionAccepted,
	})
}

// runFileIngestion is the background worker for one uploaded file. Errors
// land on the ingestion row, never in the HTTP response.
func (h *IngestHandler) runFileIngestion(ctx context.Context, ingestionID, filename string, fileBytes []byte, metadata map[string]interface{}) {
	if err := h.ingestions.MarkRunning(ctx, ingestionID); err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion running")
		return
	}

	if err := h.dispatchFile(ctx, ingestionID, filename, fileBytes, metadata); err != nil {
		h.logger.Error().Err(err).
			Str("ingestion_id", ingestionID).
			Str("filename", filename).
			Msg("Background file ingestion failed")
		if markErr := h.ingestions.MarkFailed(ctx, ingestionID, err.Error()); markErr != nil {
			h.logger.Error().Err(markErr).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion failed")
		}
		return
	}

	if err := h.ingestions.MarkCompleted(ctx, ingestionID); err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion completed")
		return
	}

	if h.config.Ingest.SummarizeOnDone {
		if err := h.summaries.SummarizeIngestion(ctx, ingestionID); err != nil {
			h.logger.Warn().Err(err).Str("ingestion_id", ingestionID).Msg("Summary generation failed")
		}
	}

	h.logger.Info().
		Str("ingestion_id", ingestionID).
		Str("filename", filename).
		Msg("File ingestion completed")
}

// dispatchFile routes the upload through the pipeline entry point matching
// its extension: markdown and HTML go through section extraction, PDFs
// through page extraction, everything else through flat text chunking.
func (h *IngestHandler) dispatchFile(ctx context.Context, ingestionID, filename string, fileBytes []byte, metadata map[string]interface{}) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".md", ".markdown":
		text := decodeText(fileBytes)
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no extractable text found in uploaded markdown file")
		}
		return h.pipeline.IngestSectioned(ctx, ingestionID, models.SourceTypeFile, filename, text, metadata)

	case ".pdf":
		return h.ingestPDF(ctx, ingestionID, filename, fileBytes, metadata)

	case ".html", ".htm":
		markdown, title, err := h.html.Convert(decodeText(fileBytes), "")
		if err != nil {
			return fmt.Errorf("HTML conversion failed: %w", err)
		}
		if strings.TrimSpace(markdown) == "" {
			return fmt.Errorf("no extractable text found in uploaded HTML file")
		}
		if title != "" {
			metadata["title"] = title
		}
		return h.pipeline.IngestSectioned(ctx, ingestionID, models.SourceTypeFile, filename, markdown, metadata)

	default:
		text := decodeText(fileBytes)
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no extractable text found in uploaded file")
		}
		return h.pipeline.IngestText(ctx, ingestionID, models.SourceTypeFile, text, metadata)
	}
}

// ingestPDF extracts pages on disk and feeds them through the pre-chunked
// path, one chunk per page that carries text.
func (h *IngestHandler) ingestPDF(ctx context.Context, ingestionID, filename string, fileBytes []byte, metadata map[string]interface{}) error {
	if err := os.MkdirAll(h.config.Ingest.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	tmp, err := os.CreateTemp(h.config.Ingest.WorkDir, "upload_*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(fileBytes); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	tmp.Close()

	pages, err := h.pdf.ExtractPages(ctx, tmp.Name())
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}

	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ChunkID: common.NewChunkID(),
			Content: page.Text,
			Metadata: map[string]interface{}{
				"filename":    filename,
				"page_number": page.PageNumber,
			},
		})
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no extractable text found in uploaded PDF")
	}

	return h.pipeline.IngestChunks(ctx, ingestionID, models.SourceTypeFile, chunks, metadata)
}

// IngestRepoHandler handles POST /v1/ingest-repo (form: git_url, local_path, provider)
func (h *IngestHandler) IngestRepoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteErrorDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid form request", err.Error())
		return
	}

	gitURL := strings.TrimSpace(r.FormValue("git_url"))
	localPath := strings.TrimSpace(r.FormValue("local_path"))
	provider := strings.TrimSpace(r.FormValue("provider"))

	// Exactly one source is required
	if (gitURL == "") == (localPath == "") {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"exactly one of git_url or local_path is required")
		return
	}

	source := gitURL
	if source == "" {
		source = localPath
	}
	repoID := identity.BuildRepoID(source)
	repoName := repoNameFromSource(source)

	ingestionID := common.NewIngestionID()
	metadata := map[string]interface{}{
		"repo_id":   repoID,
		"repo_name": repoName,
	}
	if gitURL != "" {
		metadata["git_url"] = gitURL
	}
	if localPath != "" {
		metadata["local_path"] = localPath
	}
	if provider != "" {
		metadata["provider"] = provider
	}

	req := &models.IngestionRequest{
		IngestionID: ingestionID,
		SourceType:  models.SourceTypeCode,
		Status:      models.IngestionAccepted,
		Metadata:    metadata,
	}
	if err := h.ingestions.Create(r.Context(), req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create ingestion request")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create ingestion request")
		return
	}

	common.SafeGo(h.logger, "ingestRepo", func() {
		h.runRepoIngestion(context.Background(), ingestionID, repoID, repoName, source)
	})

	WriteJSON(w, http.StatusAccepted, models.IngestAcceptedResponse{
		IngestionID: ingestionID,
		Status:      models.IngestionAccepted,
	})
}

// runRepoIngestion is the background worker for one repository
func (h *IngestHandler) runRepoIngestion(ctx context.Context, ingestionID, repoID, repoName, source string) {
	if err := h.ingestions.MarkRunning(ctx, ingestionID); err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion running")
		return
	}

	err := func() error {
		dir, cleanup, err := h.fetcher.Fetch(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to fetch repository: %w", err)
		}
		defer cleanup()
		return h.pipeline.IngestRepo(ctx, ingestionID, repoID, repoName, dir)
	}()

	if err != nil {
		h.logger.Error().Err(err).
			Str("ingestion_id", ingestionID).
			Str("repo_id", repoID).
			Msg("Background repo ingestion failed")
		if markErr := h.ingestions.MarkFailed(ctx, ingestionID, err.Error()); markErr != nil {
			h.logger.Error().Err(markErr).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion failed")
		}
		return
	}

	if err := h.ingestions.MarkCompleted(ctx, ingestionID); err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Failed to mark ingestion completed")
		return
	}

	if h.config.Ingest.SummarizeOnDone {
		if err := h.summaries.SummarizeIngestion(ctx, ingestionID); err != nil {
			h.logger.Warn().Err(err).Str("ingestion_id", ingestionID).Msg("Summary generation failed")
		}
	}

	h.logger.Info().
		Str("ingestion_id", ingestionID).
		Str("repo_id", repoID).
		Str("repo_name", repoName).
		Msg("Repository ingestion completed")
}

// StatusHandler handles GET /v1/ingest/{id} and GET /v1/ingest-repo/{id}
func (h *IngestHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ingestionID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if !validIngestionID(ingestionID) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid ingestion ID format")
		return
	}

	req, err := h.ingestions.Get(r.Context(), ingestionID)
	if err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Failed to load ingestion request")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load ingestion request")
		return
	}
	if req == nil {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "ingestion ID not found")
		return
	}

	resp := models.IngestStatusResponse{
		IngestionID: req.IngestionID,
		Status:      req.Status,
	}
	if msg, ok := req.Metadata["error"].(string); ok {
		resp.Error = msg
	}
	WriteJSON(w, http.StatusOK, resp)
}

// validIngestionID checks the ing_<uuid> shape without hitting storage
func validIngestionID(id string) bool {
	raw, ok := strings.CutPrefix(id, "ing_")
	if !ok {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

// decodeText interprets upload bytes as text: UTF-8 when valid, otherwise a
// byte-for-byte Latin-1 decode so nothing is dropped.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// repoNameFromSource derives a display name from the URL or path tail
func repoNameFromSource(source string) string {
	trimmed := strings.TrimRight(strings.ReplaceAll(source, "\\", "/"), "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		return "repository"
	}
	return name
}
