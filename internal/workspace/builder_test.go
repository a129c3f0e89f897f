package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"buildcap/internal/cmdline"
	"buildcap/internal/csargs"
	"buildcap/internal/errors"
	"buildcap/internal/invocation"
	"buildcap/internal/refcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader hands out references without touching the file system.
type fakeLoader struct {
	loads []string
}

func (l *fakeLoader) Load(path string) (*refcache.Reference, error) {
	l.loads = append(l.loads, path)
	return &refcache.Reference{Path: path, HasMetadata: true}, nil
}

func writeSource(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func cscInvocation(projectFile, commandLine string) invocation.Invocation {
	return invocation.Invocation{
		Language:         invocation.LanguageCSharp,
		ProjectFilePath:  projectFile,
		ProjectDirectory: filepath.Dir(projectFile),
		CommandLine:      commandLine,
	}
}

func TestAssemble_MultiTargetingYieldsDistinctProjects(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "Class1.cs", "class C {}")
	project := filepath.Join(dir, "Lib.csproj")

	invs := []invocation.Invocation{
		cscInvocation(project, `/usr/share/dotnet/dotnet exec "/usr/share/dotnet/sdk/8.0.100/Roslyn/bincore/csc.dll" /noconfig /target:library /define:NET8_0 /out:obj/net8.0/Lib.dll /reference:/packs/net8.0/System.Runtime.dll Class1.cs`),
		cscInvocation(project, `/usr/share/dotnet/dotnet exec "/usr/share/dotnet/sdk/8.0.100/Roslyn/bincore/csc.dll" /noconfig /target:library /define:NETSTANDARD2_0 /out:obj/netstandard2.0/Lib.dll /reference:/packs/netstandard2.0/netstandard.dll Class1.cs`),
	}

	loader := &fakeLoader{}
	ws, args, err := NewBuilder(BuilderOptions{Loader: loader}).Assemble(context.Background(), invs)
	require.NoError(t, err)

	projects := ws.Projects()
	require.Len(t, projects, 2)
	require.Len(t, args, 2)

	a, b := projects[0], projects[1]
	assert.Equal(t, "Lib", a.Name)
	assert.Equal(t, "Lib", b.Name)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, ws.ProjectsNamed("Lib"), 2)

	t.Run("arguments are recorded per identity", func(t *testing.T) {
		assert.True(t, args[a.ID].ParseOptions.IsDefined("NET8_0"))
		assert.True(t, args[b.ID].ParseOptions.IsDefined("NETSTANDARD2_0"))
		assert.Equal(t, filepath.Join(dir, "obj/net8.0/Lib.dll"), a.OutputFilePath)
	})

	t.Run("options are attached", func(t *testing.T) {
		assert.Equal(t, csargs.DynamicallyLinkedLibrary, a.CompilationOptions.OutputKind)
		assert.Equal(t, args[a.ID].ParseOptions.PreprocessorSymbols, a.ParseOptions.PreprocessorSymbols)
	})

	t.Run("documents", func(t *testing.T) {
		require.Len(t, a.Documents, 1)
		assert.Equal(t, "Class1.cs", a.Documents[0].Name)
		assert.Equal(t, filepath.Join(dir, "Class1.cs"), a.Documents[0].FilePath)
		assert.Equal(t, "class C {}", a.Documents[0].Text)
	})

	t.Run("identities are reproducible", func(t *testing.T) {
		again, _, err := NewBuilder(BuilderOptions{Loader: loader}).Assemble(context.Background(), invs)
		require.NoError(t, err)
		assert.Equal(t, a.ID, again.Projects()[0].ID)
		assert.Equal(t, b.ID, again.Projects()[1].ID)
	})
}

func TestAssemble_SkipsOtherLanguages(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A.cs", "")

	invs := []invocation.Invocation{
		{Language: invocation.LanguageVisualBasic, ProjectFilePath: filepath.Join(dir, "B.vbproj"), ProjectDirectory: dir, CommandLine: `/out:B.dll "unterminated`},
		cscInvocation(filepath.Join(dir, "A.csproj"), "/out:A.dll A.cs"),
	}

	ws, args, err := NewBuilder(BuilderOptions{Loader: &fakeLoader{}}).Assemble(context.Background(), invs)
	require.NoError(t, err)
	require.Equal(t, 1, ws.Len())
	assert.Equal(t, "A", ws.Projects()[0].Name)
	assert.Equal(t, NewProjectID(0), ws.Projects()[0].ID)
	assert.Len(t, args, 1)
}

func TestAssemble_SharesReferenceHandles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A/A.cs", "")
	writeSource(t, dir, "B/B.cs", "")

	invs := []invocation.Invocation{
		cscInvocation(filepath.Join(dir, "A/A.csproj"), "csc.exe /out:A.dll /reference:/packs/System.Runtime.dll /reference:/packs/System.Runtime.dll A.cs"),
		cscInvocation(filepath.Join(dir, "B/B.csproj"), "csc.exe /out:B.dll /reference:/packs/System.Runtime.dll B.cs"),
	}

	loader := &fakeLoader{}
	ws, _, err := NewBuilder(BuilderOptions{Loader: loader}).Assemble(context.Background(), invs)
	require.NoError(t, err)

	a, b := ws.Projects()[0], ws.Projects()[1]
	require.Len(t, a.References, 1, "duplicate references collapse")
	require.Len(t, b.References, 1)
	assert.Same(t, a.References[0], b.References[0])
	assert.Equal(t, []string{"/packs/System.Runtime.dll"}, loader.loads)
}

func TestAssemble_InjectedCacheOutlivesCall(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A.cs", "")
	invs := []invocation.Invocation{cscInvocation(filepath.Join(dir, "A.csproj"), "/reference:/packs/x.dll A.cs")}

	loader := &fakeLoader{}
	cache := refcache.New(loader)
	builder := NewBuilder(BuilderOptions{Cache: cache})

	_, _, err := builder.Assemble(context.Background(), invs)
	require.NoError(t, err)
	_, _, err = builder.Assemble(context.Background(), invs)
	require.NoError(t, err)

	assert.Len(t, loader.loads, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestAssemble_Failures(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A.cs", "")
	good := cscInvocation(filepath.Join(dir, "A.csproj"), "A.cs")

	tests := []struct {
		name  string
		inv   invocation.Invocation
		check func(t *testing.T, err error)
	}{
		{
			name: "malformed command line",
			inv:  cscInvocation(filepath.Join(dir, "B.csproj"), `/define:"A B`),
			check: func(t *testing.T, err error) {
				var te *cmdline.TokenizerError
				assert.True(t, errors.As(err, &te))
			},
		},
		{
			name: "interpreter rejects",
			inv:  cscInvocation(filepath.Join(dir, "B.csproj"), "/target:applet A.cs"),
			check: func(t *testing.T, err error) {
				var ie *csargs.InterpreterError
				assert.True(t, errors.As(err, &ie))
			},
		},
		{
			name: "missing source file",
			inv:  cscInvocation(filepath.Join(dir, "B.csproj"), "Missing.cs"),
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, os.ErrNotExist))
				assert.Contains(t, err.Error(), "Missing.cs")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, args, err := NewBuilder(BuilderOptions{Loader: &fakeLoader{}}).
				Assemble(context.Background(), []invocation.Invocation{good, tt.inv})
			require.Error(t, err)
			assert.Nil(t, ws, "nothing is published on failure")
			assert.Nil(t, args)
			assert.Contains(t, err.Error(), "invocation 1")
			tt.check(t, err)
		})
	}

	t.Run("reference load failure", func(t *testing.T) {
		failing := refcache.LoaderFunc(func(string) (*refcache.Reference, error) {
			return nil, errors.New("not a PE image")
		})
		inv := cscInvocation(filepath.Join(dir, "A.csproj"), "/reference:bad.dll A.cs")
		ws, _, err := NewBuilder(BuilderOptions{Loader: failing}).Assemble(context.Background(), []invocation.Invocation{inv})
		require.Error(t, err)
		assert.Nil(t, ws)
		assert.Contains(t, err.Error(), "not a PE image")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := NewBuilder(BuilderOptions{}).Assemble(ctx, []invocation.Invocation{good})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		path string
		want string
	}{
		{name: "child", dir: "/src/App", path: "/src/App/Program.cs", want: "Program.cs"},
		{name: "nested child", dir: "/src/App", path: "/src/App/Models/User.cs", want: "Models/User.cs"},
		{name: "trailing separator", dir: "/src/App/", path: "/src/App/Program.cs", want: "Program.cs"},
		{name: "outside", dir: "/src/App", path: "/src/Shared/Link.cs", want: "/src/Shared/Link.cs"},
		{name: "sibling with common prefix", dir: "/src/App", path: "/src/AppTests/T.cs", want: "/src/AppTests/T.cs"},
		{name: "windows", dir: `C:\src\App`, path: `C:\src\App\Program.cs`, want: "Program.cs"},
		{name: "no directory", dir: "", path: "/src/App/Program.cs", want: "/src/App/Program.cs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentName(tt.dir, tt.path))
		})
	}
}

func TestAssemble_DocumentOutsideProjectKeepsFullPath(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "App/Program.cs", "")
	shared := writeSource(t, root, "Shared/Link.cs", "")

	inv := cscInvocation(filepath.Join(root, "App/App.csproj"), "Program.cs ../Shared/Link.cs")
	ws, _, err := NewBuilder(BuilderOptions{}).Assemble(context.Background(), []invocation.Invocation{inv})
	require.NoError(t, err)

	docs := ws.Projects()[0].Documents
	require.Len(t, docs, 2)
	assert.Equal(t, "Program.cs", docs[0].Name)
	assert.Equal(t, shared, docs[1].Name)

	d, ok := ws.Projects()[0].Document(shared)
	require.True(t, ok)
	assert.Same(t, docs[1], d)
}
