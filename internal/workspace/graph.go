package workspace

import (
	"path/filepath"
	"runtime"
	"strings"
)

// EdgeReferences is the only edge kind: From references To's assembly.
const EdgeReferences = "references"

// Edge represents a directed relationship between two projects.
type Edge struct {
	From ProjectID
	To   ProjectID
	Kind string
}

// LinkProjectReferences rebuilds the project graph. A project depends on
// another project when one of its metadata references is that project's
// output assembly or a copy of it in the matching build directory: the
// obj/ref reference assembly or the bin/ copy for the same configuration and
// target framework. A same-named file elsewhere under the producer's
// directory only links when a single project produces that assembly.
func (w *Workspace) LinkProjectReferences() {
	w.edges = nil

	// assembly file name -> producing projects
	producers := make(map[string][]ProjectID)
	for _, id := range w.order {
		p := w.projects[id]
		if p.OutputFilePath == "" {
			continue
		}
		key := pathKey(filepath.Base(p.OutputFilePath))
		producers[key] = append(producers[key], id)
	}

	for _, id := range w.order {
		p := w.projects[id]
		seen := make(map[ProjectID]bool)
		for _, ref := range p.References {
			candidates := producers[pathKey(filepath.Base(ref.Path))]
			var targets []ProjectID
			for _, target := range candidates {
				if target != id && w.projects[target].emits(ref.Path) {
					targets = append(targets, target)
				}
			}
			if len(targets) == 0 && len(candidates) == 1 && candidates[0] != id && w.projects[candidates[0]].contains(ref.Path) {
				targets = candidates
			}
			for _, target := range targets {
				if seen[target] {
					continue
				}
				seen[target] = true
				w.edges = append(w.edges, Edge{From: id, To: target, Kind: EdgeReferences})
			}
		}
	}
}

// emits reports whether assembly is p's output or a copy of it in the
// build directory of the same configuration and target framework.
func (p *Project) emits(assembly string) bool {
	if pathKey(assembly) == pathKey(p.OutputFilePath) {
		return true
	}
	dir := filepath.Dir(assembly)
	if base := strings.ToLower(filepath.Base(dir)); base == "ref" || base == "refint" {
		dir = filepath.Dir(dir)
	}
	out := filepath.Dir(p.OutputFilePath)
	if pathKey(dir) == pathKey(out) {
		return true
	}
	if p.FilePath == "" {
		return false
	}
	projectDir := filepath.Dir(p.FilePath)
	tail := buildTail(projectDir, dir)
	return tail != "" && tail == buildTail(projectDir, out)
}

// contains reports whether assembly lies anywhere under p's directory.
func (p *Project) contains(assembly string) bool {
	if p.FilePath == "" {
		return false
	}
	dir := pathKey(filepath.Dir(p.FilePath)) + string(filepath.Separator)
	return strings.HasPrefix(pathKey(assembly), dir)
}

// buildTail returns dir relative to the bin/ or obj/ folder of projectDir,
// such as "Debug/net8.0", or "" when dir is not under either.
func buildTail(projectDir, dir string) string {
	rel, err := filepath.Rel(projectDir, dir)
	if err != nil {
		return ""
	}
	first, rest, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok {
		return ""
	}
	switch strings.ToLower(first) {
	case "bin", "obj":
		return pathKey(rest)
	}
	return ""
}

// Edges returns the edges computed by the last LinkProjectReferences.
func (w *Workspace) Edges() []Edge {
	return w.edges
}

// Dependencies returns the projects id references.
func (w *Workspace) Dependencies(id ProjectID) []*Project {
	var deps []*Project
	for _, edge := range w.edges {
		if edge.From == id {
			if p, ok := w.projects[edge.To]; ok {
				deps = append(deps, p)
			}
		}
	}
	return deps
}

// Dependents returns the projects that reference id.
func (w *Workspace) Dependents(id ProjectID) []*Project {
	var deps []*Project
	for _, edge := range w.edges {
		if edge.To == id {
			if p, ok := w.projects[edge.From]; ok {
				deps = append(deps, p)
			}
		}
	}
	return deps
}

func pathKey(path string) string {
	key := filepath.Clean(path)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		key = strings.ToLower(key)
	}
	return key
}
