package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"buildcap/internal/cmdline"
	"buildcap/internal/csargs"
	"buildcap/internal/errors"
	"buildcap/internal/invocation"
	"buildcap/internal/logger"
	"buildcap/internal/refcache"

	"go.uber.org/zap"
)

// BuilderOptions configures a Builder. Zero values select the C# defaults.
type BuilderOptions struct {
	// Language is the invocation language tag to keep, C# when empty.
	Language    string
	Interpreter csargs.Interpreter
	// Loader loads metadata references into the per-call cache. Ignored
	// when Cache is set.
	Loader refcache.Loader
	// Cache is shared across Assemble calls when set. Otherwise every call
	// gets a fresh cache that is dropped when it returns.
	Cache    *refcache.Cache
	ReadFile func(string) ([]byte, error)
	Logger   *zap.SugaredLogger
}

// Builder assembles a Workspace from compiler invocations.
type Builder struct {
	language    string
	interpreter csargs.Interpreter
	loader      refcache.Loader
	cache       *refcache.Cache
	readFile    func(string) ([]byte, error)
	log         *zap.SugaredLogger
}

// NewBuilder creates a builder from opts.
func NewBuilder(opts BuilderOptions) *Builder {
	b := &Builder{
		language:    opts.Language,
		interpreter: opts.Interpreter,
		loader:      opts.Loader,
		cache:       opts.Cache,
		readFile:    opts.ReadFile,
		log:         logger.Component(opts.Logger, "workspace"),
	}
	if b.language == "" {
		b.language = invocation.LanguageCSharp
	}
	if b.interpreter == nil {
		b.interpreter = csargs.CSharpInterpreter{}
	}
	if b.loader == nil {
		b.loader = refcache.PELoader{}
	}
	if b.readFile == nil {
		b.readFile = os.ReadFile
	}
	return b
}

// Assemble turns invocations into projects, in order, and returns the
// workspace together with the interpreted arguments of every project. Any
// failure aborts the whole assembly and nothing is returned.
func (b *Builder) Assemble(ctx context.Context, invocations []invocation.Invocation) (*Workspace, map[ProjectID]*csargs.Arguments, error) {
	cache := b.cache
	if cache == nil {
		cache = refcache.New(b.loader)
	}

	ws := New()
	args := make(map[ProjectID]*csargs.Arguments)

	for i, inv := range invocations {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, "assembly interrupted")
		}
		if inv.Language != b.language {
			b.log.Debugw("skipping invocation",
				logger.FieldProject, inv.ProjectFilePath,
				logger.FieldLanguage, inv.Language,
			)
			continue
		}

		project, parsed, err := b.assembleOne(inv, NewProjectID(ws.Len()), cache)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invocation %d (%s)", i, inv.ProjectFilePath)
		}

		args[project.ID] = parsed
		ws.Add(project)
		b.log.Infow("project assembled",
			logger.FieldProject, project.Name,
			logger.FieldProjectID, project.ID.String(),
			logger.FieldCount, len(project.Documents),
		)
	}

	ws.LinkProjectReferences()
	return ws, args, nil
}

func (b *Builder) assembleOne(inv invocation.Invocation, id ProjectID, cache *refcache.Cache) (*Project, *csargs.Arguments, error) {
	tokens, err := cmdline.Tokenize(cmdline.StripExecutable(inv.CommandLine))
	if err != nil {
		return nil, nil, err
	}

	parsed, err := b.interpreter.Parse(tokens, inv.ProjectDirectory)
	if err != nil {
		return nil, nil, err
	}
	for _, msg := range parsed.Errors {
		b.log.Warnw(msg, logger.FieldProject, inv.ProjectFilePath)
	}

	project := &Project{
		ID:                 id,
		Name:               projectName(inv.ProjectFilePath),
		Language:           inv.Language,
		FilePath:           inv.ProjectFilePath,
		OutputFilePath:     parsed.OutputPath(),
		CompilationOptions: parsed.CompilationOptions,
		ParseOptions:       parsed.ParseOptions,
	}

	for _, path := range parsed.ReferencePaths() {
		ref, err := cache.GetOrLoad(path)
		if err != nil {
			return nil, nil, err
		}
		project.addReference(ref)
	}

	for _, path := range parsed.SourceFiles {
		text, err := b.readFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read source file %s", path)
		}
		project.Documents = append(project.Documents, &Document{
			Name:     DocumentName(inv.ProjectDirectory, path),
			FilePath: path,
			Text:     string(text),
		})
	}

	return project, parsed, nil
}

func projectName(projectFile string) string {
	base := filepath.Base(projectFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentName is path relative to projectDir when path lies inside it,
// and path unchanged otherwise.
func DocumentName(projectDir, path string) string {
	if projectDir == "" {
		return path
	}
	rest, ok := strings.CutPrefix(path, projectDir)
	if !ok || rest == "" {
		return path
	}
	// "/src/App" must not match "/src/AppTests/x.cs".
	if !isSeparator(rest[0]) && !isSeparator(projectDir[len(projectDir)-1]) {
		return path
	}
	return strings.TrimLeftFunc(rest, func(r rune) bool { return r < 0x80 && isSeparator(byte(r)) })
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
