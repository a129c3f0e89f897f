// Package csargs interprets C# compiler argument vectors into structured
// compilation settings, source files and references.
package csargs

import (
	"path/filepath"
	"strings"
)

// OutputKind is the kind of binary a compilation produces.
type OutputKind int

const (
	ConsoleApplication OutputKind = iota
	WindowsApplication
	DynamicallyLinkedLibrary
	NetModule
	WindowsRuntimeMetadata
	WindowsRuntimeApplication
)

var outputKindNames = map[OutputKind]string{
	ConsoleApplication:        "ConsoleApplication",
	WindowsApplication:        "WindowsApplication",
	DynamicallyLinkedLibrary:  "DynamicallyLinkedLibrary",
	NetModule:                 "NetModule",
	WindowsRuntimeMetadata:    "WindowsRuntimeMetadata",
	WindowsRuntimeApplication: "WindowsRuntimeApplication",
}

func (k OutputKind) String() string { return outputKindNames[k] }

// Extension is the file extension of the produced binary.
func (k OutputKind) Extension() string {
	switch k {
	case DynamicallyLinkedLibrary:
		return ".dll"
	case NetModule:
		return ".netmodule"
	case WindowsRuntimeMetadata:
		return ".winmdobj"
	default:
		return ".exe"
	}
}

// OptimizationLevel mirrors /optimize.
type OptimizationLevel int

const (
	Debug OptimizationLevel = iota
	Release
)

func (l OptimizationLevel) String() string {
	if l == Release {
		return "Release"
	}
	return "Debug"
}

// Platform is the /platform target.
type Platform string

const (
	AnyCPU               Platform = "AnyCpu"
	AnyCPU32BitPreferred Platform = "AnyCpu32BitPreferred"
	X86                  Platform = "X86"
	X64                  Platform = "X64"
	Arm                  Platform = "Arm"
	Arm64                Platform = "Arm64"
	Itanium              Platform = "Itanium"
)

// ReportDiagnostic is how a diagnostic id is reported.
type ReportDiagnostic string

const (
	ReportDefault  ReportDiagnostic = "Default"
	ReportError    ReportDiagnostic = "Error"
	ReportSuppress ReportDiagnostic = "Suppress"
)

// NullableContext mirrors /nullable.
type NullableContext string

const (
	NullableDisable     NullableContext = "Disable"
	NullableEnable      NullableContext = "Enable"
	NullableWarnings    NullableContext = "Warnings"
	NullableAnnotations NullableContext = "Annotations"
)

// DocumentationMode controls how documentation comments are parsed.
type DocumentationMode string

const (
	DocumentationNone     DocumentationMode = "None"
	DocumentationDiagnose DocumentationMode = "Diagnose"
)

// CompilationOptions are the project-wide settings of one compilation.
type CompilationOptions struct {
	OutputKind                OutputKind
	ModuleName                string
	ModuleAssemblyName        string
	MainTypeName              string
	OptimizationLevel         OptimizationLevel
	Platform                  Platform
	AllowUnsafe               bool
	CheckOverflow             bool
	Deterministic             bool
	WarningLevel              int
	Nullable                  NullableContext
	GeneralDiagnosticOption   ReportDiagnostic
	SpecificDiagnosticOptions map[string]ReportDiagnostic
}

// ParseOptions are the settings that affect parsing of every document.
type ParseOptions struct {
	LanguageVersion     LanguageVersion
	PreprocessorSymbols []string
	DocumentationMode   DocumentationMode
	Features            map[string]string
}

// Reference is one metadata reference named on the command line.
type Reference struct {
	Path              string
	Aliases           []string
	EmbedInteropTypes bool
}

// Arguments is the interpreted form of one compiler command line.
type Arguments struct {
	BaseDirectory      string
	CompilationOptions CompilationOptions
	ParseOptions       ParseOptions
	SourceFiles        []string
	MetadataReferences []Reference
	AnalyzerReferences []string
	AdditionalFiles    []string
	OutputFileName     string
	OutputDirectory    string
	DocumentationPath  string
	EmitPdb            bool
	NoConfig           bool
	NoStdLib           bool
	// Errors holds non-fatal problems found while interpreting, such as
	// unrecognized options.
	Errors []string
}

// OutputPath is the full path of the produced binary, or "" when unknown.
func (a *Arguments) OutputPath() string {
	if a.OutputFileName == "" {
		return ""
	}
	return filepath.Join(a.OutputDirectory, a.OutputFileName)
}

// ReferencePaths lists the metadata reference paths in command-line order.
func (a *Arguments) ReferencePaths() []string {
	paths := make([]string, 0, len(a.MetadataReferences))
	for _, r := range a.MetadataReferences {
		paths = append(paths, r.Path)
	}
	return paths
}

// IsDefined reports whether a preprocessor symbol is defined.
func (p ParseOptions) IsDefined(symbol string) bool {
	for _, s := range p.PreprocessorSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// normalizeDiagnosticID turns "168" into "CS0168" the way the compiler
// does; anything else is kept as written.
func normalizeDiagnosticID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	for len(id) < 4 {
		id = "0" + id
	}
	return "CS" + id
}
