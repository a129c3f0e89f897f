package extractor

import sitter "github.com/smacker/go-tree-sitter"

// CodeUnit is one declared symbol found in a source file.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Namespace   string      `json:"namespace"`
	Container   string      `json:"container,omitempty"` // enclosing type, if any
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	Content     string      `json:"content"`
	UnitType    string      `json:"unit_type"` // e.g., "class", "interface", "method"
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Details     interface{} `json:"details"` // Language-specific details
}

// QualifiedName is Namespace.Container.Name with empty parts left out.
func (u *CodeUnit) QualifiedName() string {
	name := u.Name
	if u.Container != "" {
		name = u.Container + "." + name
	}
	if u.Namespace != "" {
		name = u.Namespace + "." + name
	}
	return name
}

// Diagnostic is a syntax problem found while parsing a document. Line and
// Column are 1-based; Column counts bytes.
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit
}
