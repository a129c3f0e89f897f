package capture

import (
	"context"

	"buildcap/internal/extractor"
	"buildcap/internal/workspace"
)

// ProjectReport is the syntax-level verification of one project.
type ProjectReport struct {
	Project *workspace.Project
	// PreprocessorSymbols are the symbols the documents were compiled
	// with. Conditional regions are parsed regardless of them.
	PreprocessorSymbols []string
	Units               []*extractor.CodeUnit
	Diagnostics         []extractor.Diagnostic
}

// HasErrors reports whether any document failed to parse cleanly.
func (r ProjectReport) HasErrors() bool {
	return len(r.Diagnostics) > 0
}

// Verify parses every document of every project and reports syntax
// diagnostics and declared symbols, in workspace order.
func (r *Result) Verify(ctx context.Context) ([]ProjectReport, error) {
	extractors := make(map[string]*extractor.Extractor)

	var reports []ProjectReport
	for _, p := range r.workspace.Projects() {
		ext, ok := extractors[p.Language]
		if !ok {
			var err error
			if ext, err = extractor.NewExtractor(p.Language); err != nil {
				return nil, err
			}
			extractors[p.Language] = ext
		}

		report := ProjectReport{Project: p, PreprocessorSymbols: p.ParseOptions.PreprocessorSymbols}
		for _, doc := range p.Documents {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := ext.Extract(ctx, doc.FilePath, []byte(doc.Text))
			if err != nil {
				return nil, err
			}
			report.Units = append(report.Units, res.Units...)
			report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
