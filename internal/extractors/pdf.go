package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
)

// PDFExtractor extracts text from PDF files on disk using pdfcpu.
// Extraction goes through a scratch directory because pdfcpu writes
// per-page content files rather than returning text.
type PDFExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

var _ interfaces.PDFExtractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor with its own scratch directory
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	tempDir := filepath.Join(os.TempDir(), "contexo-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text from a PDF, pages joined with separators
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, page := range pages {
		if i > 0 {
			builder.WriteString(fmt.Sprintf("\n\n--- Page %d ---\n\n", page.PageNumber))
		}
		builder.WriteString(page.Text)
	}
	return builder.String(), nil
}

// ExtractPages extracts text content page by page. Pages that yield no
// content come back with empty text rather than failing the document.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) ([]interfaces.PDFPageContent, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("PDF content extraction failed, returning empty pages")
		pages := make([]interfaces.PDFPageContent, 0, pageCount)
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PDFPageContent{PageNumber: pageNum})
		}
		return pages, nil
	}

	pageTexts := e.readExtractedPages(outDir)

	pages := make([]interfaces.PDFPageContent, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}
	return pages, nil
}

// GetMetadata reads page count and encryption state without extracting text
func (e *PDFExtractor) GetMetadata(ctx context.Context, path string) (*interfaces.PDFMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF %s: %w", path, err)
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	metadata := &interfaces.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    info.Size(),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	e.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Read PDF metadata")

	return metadata, nil
}

// readExtractedPages maps page numbers to the content pdfcpu wrote for them.
// pdfcpu names output files Content_page_N or page_N depending on version.
func (e *PDFExtractor) readExtractedPages(outDir string) map[int]string {
	pageTexts := make(map[int]string)

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return pageTexts
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var pageNum int
		if _, err := fmt.Sscanf(name, "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(name, "page_%d", &pageNum); err != nil {
				continue
			}
		}
		content, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = string(content)
	}
	return pageTexts
}
