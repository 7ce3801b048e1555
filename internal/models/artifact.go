package models

// ArtifactType identifies the kind of artifact an extractor produced
type ArtifactType string

const (
	ArtifactModule          ArtifactType = "MODULE"
	ArtifactClass           ArtifactType = "CLASS"
	ArtifactFunction        ArtifactType = "FUNCTION"
	ArtifactMethod          ArtifactType = "METHOD"
	ArtifactImport          ArtifactType = "IMPORT"
	ArtifactCall            ArtifactType = "CALL"
	ArtifactMarkdownModule  ArtifactType = "MARKDOWN_MODULE"
	ArtifactMarkdownSection ArtifactType = "MARKDOWN_SECTION"
)

// IsDefinition reports whether the artifact type participates in DEFINES edges
func (t ArtifactType) IsDefinition() bool {
	switch t {
	case ArtifactClass, ArtifactFunction, ArtifactMethod, ArtifactMarkdownSection:
		return true
	}
	return false
}

// IsSymbol reports whether the artifact type is indexed in the symbol table
func (t ArtifactType) IsSymbol() bool {
	switch t {
	case ArtifactClass, ArtifactFunction, ArtifactMethod:
		return true
	}
	return false
}

// CallDetail carries CALL-specific fields: the callee name as written at the
// call site and, once resolved, the confidence of the resolution.
type CallDetail struct {
	Callee     string  `json:"callee"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ImportDetail carries IMPORT-specific fields
type ImportDetail struct {
	Module string `json:"module"`
	Alias  string `json:"alias,omitempty"`
}

// SectionDetail carries MARKDOWN_SECTION-specific fields
type SectionDetail struct {
	Level   int    `json:"level"`
	Slug    string `json:"slug"`
	Heading string `json:"heading"`
}

// Artifact is a typed piece extracted from a source file. The variant detail
// structs are populated according to Type; shared fields live here.
// Artifacts are in-memory only: the builder consumes them and persists
// DocumentNodes instead.
type Artifact struct {
	ID           string                 `json:"id"` // canonical_id once assigned by the builder
	Type         ArtifactType           `json:"type"`
	Name         string                 `json:"name"`
	ParentID     string                 `json:"parent_id,omitempty"`
	RelativePath string                 `json:"relative_path"`
	Text         string                 `json:"text,omitempty"`
	StartLine    int                    `json:"start_line,omitempty"`
	EndLine      int                    `json:"end_line,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`

	// Variant details, populated according to Type
	Call    *CallDetail    `json:"call,omitempty"`
	Import  *ImportDetail  `json:"import,omitempty"`
	Section *SectionDetail `json:"section,omitempty"`
}

// SymbolPath returns the portion of the canonical id after the path separator,
// or "" for module-level artifacts.
func (a *Artifact) SymbolPath() string {
	for i := 0; i < len(a.ID); i++ {
		if a.ID[i] == '#' {
			return a.ID[i+1:]
		}
	}
	return ""
}
