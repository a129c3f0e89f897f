package csargs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"buildcap/internal/cmdline"
	"buildcap/internal/errors"
)

const maxResponseDepth = 8

// Interpreter turns a compiler argument vector into Arguments. Relative
// paths are resolved against baseDirectory.
type Interpreter interface {
	Parse(args []string, baseDirectory string) (*Arguments, error)
}

// CSharpInterpreter understands the csc command-line syntax.
type CSharpInterpreter struct {
	// ReadFile reads response files; os.ReadFile when nil.
	ReadFile func(string) ([]byte, error)
}

// Options the interpreter accepts without using their value. They are
// listed so that a Unix path such as /pdb:... is not mistaken for a source.
var ignoredOptions = map[string]bool{
	"nologo": true, "utf8output": true, "errorreport": true, "filealign": true,
	"highentropyva": true, "pdb": true, "ruleset": true, "keyfile": true,
	"keycontainer": true, "delaysign": true, "embed": true, "sourcelink": true,
	"pathmap": true, "preferreduilang": true, "errorendlocation": true,
	"win32icon": true, "win32manifest": true, "win32res": true, "resource": true,
	"res": true, "linkresource": true, "linkres": true, "subsystemversion": true,
	"reportanalyzer": true, "skipanalyzers": true, "analyzerconfig": true,
	"generatedfilesout": true, "publicsign": true, "sqmsessionguid": true,
	"instrument": true, "runtimemetadataversion": true, "checksumalgorithm": true,
	"errorlog": true, "refout": true, "refonly": true, "fullpaths": true,
	"incremental": true, "shared": true, "parallel": true, "lib": true,
	"nosdkpath": true, "nowin32manifest": true, "emitcompilergeneratedfiles": true,
	"warnnotaserror": true, "appconfig": true, "baseaddress": true, "codepage": true,
	"recurse": true, "touchedfiles": true, "help": true, "?": true,
}

var knownOptions = map[string]bool{
	"out": true, "target": true, "t": true, "reference": true, "r": true,
	"link": true, "l": true, "define": true, "d": true, "optimize": true, "o": true,
	"debug": true, "langversion": true, "nullable": true, "unsafe": true,
	"checked": true, "deterministic": true, "warn": true, "w": true,
	"warnaserror": true, "nowarn": true, "platform": true, "main": true, "m": true,
	"moduleassemblyname": true, "doc": true, "analyzer": true, "a": true,
	"additionalfile": true, "features": true, "noconfig": true, "nostdlib": true,
}

// option is one parsed switch: /name[+|-][:value].
type option struct {
	raw      string
	name     string
	value    string
	hasValue bool
	plus     bool // explicit '+'
	minus    bool // explicit '-'
}

func splitOption(arg string) (option, bool) {
	if len(arg) < 2 || (arg[0] != '/' && arg[0] != '-') {
		return option{}, false
	}
	o := option{raw: arg}
	body := arg[1:]
	if i := strings.IndexByte(body, ':'); i >= 0 {
		o.name, o.value, o.hasValue = body[:i], body[i+1:], true
	} else {
		o.name = body
	}
	o.name = strings.ToLower(o.name)
	switch {
	case strings.HasSuffix(o.name, "+"):
		o.name, o.plus = strings.TrimSuffix(o.name, "+"), true
	case strings.HasSuffix(o.name, "-"):
		o.name, o.minus = strings.TrimSuffix(o.name, "-"), true
	}

	known := knownOptions[o.name] || ignoredOptions[o.name]
	// On Unix an absolute source path also starts with '/'.
	if !known && arg[0] == '/' && (strings.ContainsRune(body, '/') || (!o.hasValue && isSourceFile(body))) {
		return option{}, false
	}
	return o, true
}

func isSourceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cs")
}

// Parse interprets args. Unknown options are recorded in Arguments.Errors
// and otherwise ignored.
func (c CSharpInterpreter) Parse(args []string, baseDirectory string) (*Arguments, error) {
	p := &parser{
		readFile: c.ReadFile,
		base:     baseDirectory,
		out: &Arguments{
			BaseDirectory: baseDirectory,
			CompilationOptions: CompilationOptions{
				OutputKind:                ConsoleApplication,
				OptimizationLevel:         Debug,
				Platform:                  AnyCPU,
				WarningLevel:              4,
				Nullable:                  NullableDisable,
				GeneralDiagnosticOption:   ReportDefault,
				SpecificDiagnosticOptions: map[string]ReportDiagnostic{},
			},
			ParseOptions: ParseOptions{
				LanguageVersion:   DefaultLanguageVersion,
				DocumentationMode: DocumentationNone,
				Features:          map[string]string{},
			},
		},
		seenSources: map[string]bool{},
	}
	if p.readFile == nil {
		p.readFile = os.ReadFile
	}

	if err := p.parse(args, 0); err != nil {
		return nil, err
	}
	p.finish()
	return p.out, nil
}

type parser struct {
	readFile    func(string) ([]byte, error)
	base        string
	out         *Arguments
	seenSources map[string]bool
}

func (p *parser) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.base == "" {
		return path
	}
	return filepath.Join(p.base, path)
}

func (p *parser) parse(args []string, depth int) error {
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			if err := p.responseFile(arg, depth); err != nil {
				return err
			}
			continue
		}

		o, isOption := splitOption(arg)
		if !isOption {
			if err := p.addSource(arg); err != nil {
				return err
			}
			continue
		}
		if err := p.apply(o); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) responseFile(arg string, depth int) error {
	if depth >= maxResponseDepth {
		return errors.WithStack(&InterpreterError{Option: arg, Reason: "response files nested too deeply"})
	}
	data, err := p.readFile(p.resolve(strings.TrimPrefix(arg, "@")))
	if err != nil {
		return errors.WithStack(&InterpreterError{Option: arg, Reason: "cannot read response file", Cause: err})
	}

	var nested []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens, err := cmdline.Tokenize(line)
		if err != nil {
			return errors.WithStack(&InterpreterError{Option: arg, Reason: "malformed response file", Cause: err})
		}
		nested = append(nested, tokens...)
	}
	return p.parse(nested, depth+1)
}

func (p *parser) addSource(arg string) error {
	if strings.ContainsAny(arg, "*?") {
		matches, err := filepath.Glob(p.resolve(arg))
		if err != nil {
			return errors.WithStack(&InterpreterError{Option: arg, Reason: "bad source file pattern", Cause: err})
		}
		sort.Strings(matches)
		for _, m := range matches {
			p.appendSource(m)
		}
		return nil
	}
	p.appendSource(p.resolve(arg))
	return nil
}

func (p *parser) appendSource(path string) {
	if p.seenSources[path] {
		return
	}
	p.seenSources[path] = true
	p.out.SourceFiles = append(p.out.SourceFiles, path)
}

func invalid(o option, reason string) error {
	return errors.WithStack(&InterpreterError{Option: o.raw, Reason: reason})
}

// toggle resolves /name, /name+ and /name- to a bool.
func toggle(o option) bool {
	return !o.minus
}

// listValues splits a ';' or ',' separated value, dropping empty items.
func listValues(value string) []string {
	var out []string
	for _, v := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p *parser) apply(o option) error {
	co := &p.out.CompilationOptions
	po := &p.out.ParseOptions

	switch o.name {
	case "out":
		if o.value == "" {
			return invalid(o, "missing file name")
		}
		full := p.resolve(o.value)
		p.out.OutputDirectory, p.out.OutputFileName = filepath.Dir(full), filepath.Base(full)

	case "target", "t":
		kind, ok := map[string]OutputKind{
			"exe":             ConsoleApplication,
			"winexe":          WindowsApplication,
			"library":         DynamicallyLinkedLibrary,
			"module":          NetModule,
			"winmdobj":        WindowsRuntimeMetadata,
			"appcontainerexe": WindowsRuntimeApplication,
		}[strings.ToLower(o.value)]
		if !ok {
			return invalid(o, "unknown target kind")
		}
		co.OutputKind = kind

	case "reference", "r", "link", "l":
		return p.references(o, o.name == "link" || o.name == "l")

	case "define", "d":
		for _, sym := range listValues(o.value) {
			if !po.IsDefined(sym) {
				po.PreprocessorSymbols = append(po.PreprocessorSymbols, sym)
			}
		}

	case "optimize", "o":
		co.OptimizationLevel = Debug
		if toggle(o) {
			co.OptimizationLevel = Release
		}

	case "debug":
		p.out.EmitPdb = toggle(o)

	case "langversion":
		lv, err := ParseLanguageVersion(o.value)
		if err != nil {
			return errors.WithStack(&InterpreterError{Option: o.raw, Reason: "bad language version", Cause: err})
		}
		po.LanguageVersion = lv

	case "nullable":
		switch {
		case o.minus:
			co.Nullable = NullableDisable
		case !o.hasValue || o.plus:
			co.Nullable = NullableEnable
		default:
			ctx, ok := map[string]NullableContext{
				"enable":      NullableEnable,
				"disable":     NullableDisable,
				"warnings":    NullableWarnings,
				"annotations": NullableAnnotations,
			}[strings.ToLower(o.value)]
			if !ok {
				return invalid(o, "unknown nullable context")
			}
			co.Nullable = ctx
		}

	case "unsafe":
		co.AllowUnsafe = toggle(o)

	case "checked":
		co.CheckOverflow = toggle(o)

	case "deterministic":
		co.Deterministic = toggle(o)

	case "warn", "w":
		level, err := strconv.Atoi(o.value)
		if err != nil || level < 0 {
			return invalid(o, "warning level must be a non-negative integer")
		}
		co.WarningLevel = level

	case "warnaserror":
		ids := listValues(o.value)
		if len(ids) == 0 {
			co.GeneralDiagnosticOption = ReportDefault
			if !o.minus {
				co.GeneralDiagnosticOption = ReportError
			}
			return nil
		}
		for _, id := range ids {
			id = normalizeDiagnosticID(id)
			if o.minus {
				if co.SpecificDiagnosticOptions[id] == ReportError {
					delete(co.SpecificDiagnosticOptions, id)
				}
				continue
			}
			if co.SpecificDiagnosticOptions[id] != ReportSuppress {
				co.SpecificDiagnosticOptions[id] = ReportError
			}
		}

	case "nowarn":
		for _, id := range listValues(o.value) {
			co.SpecificDiagnosticOptions[normalizeDiagnosticID(id)] = ReportSuppress
		}

	case "platform":
		plat, ok := map[string]Platform{
			"anycpu":               AnyCPU,
			"anycpu32bitpreferred": AnyCPU32BitPreferred,
			"x86":                  X86,
			"x64":                  X64,
			"arm":                  Arm,
			"arm64":                Arm64,
			"itanium":              Itanium,
		}[strings.ToLower(o.value)]
		if !ok {
			return invalid(o, "unknown platform")
		}
		co.Platform = plat

	case "main", "m":
		co.MainTypeName = o.value

	case "moduleassemblyname":
		co.ModuleAssemblyName = o.value

	case "doc":
		p.out.DocumentationPath = p.resolve(o.value)
		po.DocumentationMode = DocumentationDiagnose

	case "analyzer", "a":
		for _, v := range listValues(o.value) {
			p.out.AnalyzerReferences = append(p.out.AnalyzerReferences, p.resolve(v))
		}

	case "additionalfile":
		for _, v := range listValues(o.value) {
			p.out.AdditionalFiles = append(p.out.AdditionalFiles, p.resolve(v))
		}

	case "features":
		for _, f := range listValues(o.value) {
			name, value, ok := strings.Cut(f, "=")
			if !ok {
				value = "true"
			}
			po.Features[name] = value
		}

	case "noconfig":
		p.out.NoConfig = true

	case "nostdlib":
		p.out.NoStdLib = toggle(o)

	default:
		if !ignoredOptions[o.name] {
			p.out.Errors = append(p.out.Errors, "unrecognized option '"+o.raw+"'")
		}
	}
	return nil
}

// references handles /reference:a.dll;b.dll and /reference:alias=a.dll.
func (p *parser) references(o option, embed bool) error {
	if o.value == "" {
		return invalid(o, "missing reference path")
	}

	if alias, path, ok := strings.Cut(o.value, "="); ok {
		if alias == "" || path == "" || strings.ContainsAny(path, ";,") {
			return invalid(o, "an aliased reference names exactly one file")
		}
		p.out.MetadataReferences = append(p.out.MetadataReferences, Reference{
			Path:              p.resolve(path),
			Aliases:           listValues(alias),
			EmbedInteropTypes: embed,
		})
		return nil
	}

	for _, path := range listValues(o.value) {
		p.out.MetadataReferences = append(p.out.MetadataReferences, Reference{
			Path:              p.resolve(path),
			EmbedInteropTypes: embed,
		})
	}
	return nil
}

// finish fills in defaults that depend on the whole command line.
func (p *parser) finish() {
	co := &p.out.CompilationOptions
	if p.out.OutputFileName == "" && len(p.out.SourceFiles) > 0 {
		first := p.out.SourceFiles[0]
		stem := strings.TrimSuffix(filepath.Base(first), filepath.Ext(first))
		p.out.OutputFileName = stem + co.OutputKind.Extension()
		p.out.OutputDirectory = p.base
	}
	co.ModuleName = p.out.OutputFileName

	if co.Nullable != NullableDisable && !p.out.ParseOptions.LanguageVersion.AtLeast(8, 0) {
		p.out.Errors = append(p.out.Errors, fmt.Sprintf(
			"nullable %s requires language version 8.0 or greater, got %s",
			strings.ToLower(string(co.Nullable)), p.out.ParseOptions.LanguageVersion))
	}
}
