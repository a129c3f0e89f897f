// Package extractor parses source documents with tree-sitter, reporting
// syntax diagnostics and the symbols each document declares.
package extractor

import (
	"context"
	"os"
	"strings"

	"buildcap/internal/errors"

	sitter "github.com/smacker/go-tree-sitter"
)

// Result is everything found in one document.
type Result struct {
	Units       []*CodeUnit
	Diagnostics []Diagnostic
}

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
	query         *sitter.Query
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch strings.ToLower(lang) {
	case "c#", "csharp", "cs":
		langExt = &CSharpExtractor{}
	default:
		return nil, errors.Newf("unsupported language: %s", lang)
	}

	query, err := sitter.NewQuery([]byte(langExt.GetQuery()), langExt.GetLanguage())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create query")
	}
	return &Extractor{langExtractor: langExt, langName: lang, query: query}, nil
}

// extractFile reads and extracts a single source file.
func (e *Extractor) extractFile(ctx context.Context, filepath string) (*Result, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %s", filepath)
	}
	return e.Extract(ctx, filepath, sourceCode)
}

// Extract parses sourceCode, which was read from filepath.
func (e *Extractor) Extract(ctx context.Context, filepath string, sourceCode []byte) (*Result, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse file %s", filepath)
	}
	defer tree.Close()
	root := tree.RootNode()

	res := &Result{Diagnostics: SyntaxDiagnostics(root, sourceCode, filepath)}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(e.query, root)

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := e.query.CaptureNameForId(c.Index)
			unit := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, filepath)
			if unit != nil {
				unit.ID = BuildStableSymbolID(unit)
				res.Units = append(res.Units, unit)
			}
		}
	}

	return res, nil
}

// SyntaxDiagnostics reports every ERROR and MISSING node under root.
func SyntaxDiagnostics(root *sitter.Node, sourceCode []byte, filepath string) []Diagnostic {
	var diags []Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			diags = append(diags, diagnosticAt(n, filepath, "missing `"+n.Type()+"`"))
			return
		case n.Type() == "ERROR":
			diags = append(diags, diagnosticAt(n, filepath, "unexpected `"+snippet(n.Content(sourceCode))+"`"))
			return
		case !n.HasError():
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return diags
}

func diagnosticAt(n *sitter.Node, filepath, message string) Diagnostic {
	p := n.StartPoint()
	return Diagnostic{
		File:    filepath,
		Line:    int(p.Row) + 1,
		Column:  int(p.Column) + 1,
		Message: "syntax error: " + message,
	}
}

func snippet(s string) string {
	s = canonicalize(s)
	if r := []rune(s); len(r) > 24 {
		s = string(r[:24]) + "..."
	}
	return s
}
