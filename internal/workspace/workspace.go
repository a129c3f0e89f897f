// Package workspace holds the in-memory model reconstructed from captured
// compiler invocations: projects, their documents and references, and the
// reference graph between projects.
package workspace

import (
	"strconv"

	"buildcap/internal/csargs"
	"buildcap/internal/refcache"

	"github.com/google/uuid"
)

var projectNamespace = uuid.MustParse("5c1e3f0a-6d0b-4c55-9a43-1f2d7e8b9c60")

// ProjectID identifies one compiled project. It is derived from the order in
// which projects were created, never from their names.
type ProjectID uuid.UUID

// NewProjectID returns the identity of the ordinal-th project of a session.
func NewProjectID(ordinal int) ProjectID {
	return ProjectID(uuid.NewSHA1(projectNamespace, []byte(strconv.Itoa(ordinal))))
}

func (id ProjectID) String() string { return uuid.UUID(id).String() }

// Document is one source file of a project.
type Document struct {
	Name     string
	FilePath string
	Text     string
}

// Project is one compiler invocation turned into a navigable unit. Several
// projects may share a Name when a project file targets several frameworks.
type Project struct {
	ID                 ProjectID
	Name               string
	Language           string
	FilePath           string
	OutputFilePath     string
	CompilationOptions csargs.CompilationOptions
	ParseOptions       csargs.ParseOptions
	References         []*refcache.Reference
	Documents          []*Document
}

// addReference attaches ref unless the project already holds it.
func (p *Project) addReference(ref *refcache.Reference) {
	for _, r := range p.References {
		if r == ref {
			return
		}
	}
	p.References = append(p.References, ref)
}

// Document returns the document with the given file path.
func (p *Project) Document(filePath string) (*Document, bool) {
	for _, d := range p.Documents {
		if d.FilePath == filePath {
			return d, true
		}
	}
	return nil, false
}

// Workspace is the set of projects created during one capture session.
type Workspace struct {
	projects map[ProjectID]*Project
	order    []ProjectID
	edges    []Edge
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{projects: make(map[ProjectID]*Project)}
}

// Add inserts p, replacing any project with the same identity while keeping
// its original position.
func (w *Workspace) Add(p *Project) {
	if _, ok := w.projects[p.ID]; !ok {
		w.order = append(w.order, p.ID)
	}
	w.projects[p.ID] = p
}

// Get returns the project with the given identity.
func (w *Workspace) Get(id ProjectID) (*Project, bool) {
	p, ok := w.projects[id]
	return p, ok
}

// Projects lists projects in creation order.
func (w *Workspace) Projects() []*Project {
	out := make([]*Project, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.projects[id])
	}
	return out
}

// ProjectsNamed lists every project with the given display name.
func (w *Workspace) ProjectsNamed(name string) []*Project {
	var out []*Project
	for _, id := range w.order {
		if p := w.projects[id]; p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of projects.
func (w *Workspace) Len() int {
	return len(w.order)
}
