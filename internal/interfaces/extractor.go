package interfaces

import (
	"github.com/ternarybob/contexo/internal/models"
)

// Extractor turns one source file into typed artifacts. Implementations are
// constructed per file with the repo-relative path; Extract must produce
// exactly one MODULE (or MARKDOWN_MODULE) artifact, and every non-module
// artifact must reference an existing ancestor via ParentID.
type Extractor interface {
	// Extract parses the file contents into artifacts. A file that yields no
	// artifacts is not an error; a parse failure is, and the caller skips
	// the file.
	Extract(source []byte) ([]*models.Artifact, error)
}
