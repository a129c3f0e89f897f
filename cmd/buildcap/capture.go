package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"buildcap/internal/capture"
	"buildcap/internal/errors"
	"buildcap/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configuration string
	platform      string
	properties    []string
	timeout       time.Duration
	verify        bool
	jsonOutput    bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <solution-or-project>",
	Short: "Rebuild a solution and print the projects its compiler invocations describe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		opts := []capture.Option{capture.WithConfig(cfg), capture.WithLogger(log)}
		if cmd.Flags().Changed("configuration") {
			opts = append(opts, capture.WithConfiguration(configuration))
		}
		if cmd.Flags().Changed("platform") {
			opts = append(opts, capture.WithPlatform(platform))
		}
		if cmd.Flags().Changed("timeout") {
			opts = append(opts, capture.WithTimeout(timeout))
		}
		props, err := parseProperties(properties)
		if err != nil {
			return err
		}
		opts = append(opts, capture.WithProperties(props))

		ctx := cmd.Context()
		res, err := capture.Build(ctx, args[0], opts...)
		if err != nil {
			return err
		}

		var reports []capture.ProjectReport
		if verify {
			if reports, err = res.Verify(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, res, reports)
		}
		writeText(out, res, reports)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&configuration, "configuration", "c", "Debug", "Build configuration")
	captureCmd.Flags().StringVarP(&platform, "platform", "p", "Any CPU", "Build platform")
	captureCmd.Flags().StringArrayVarP(&properties, "property", "P", nil, "Extra build property as key=value (repeatable)")
	captureCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the build after this long (0 disables)")
	captureCmd.Flags().BoolVar(&verify, "verify", false, "Parse every document and report syntax diagnostics")
	captureCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func parseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errors.WithHint(errors.Newf("invalid property %q", pair), "use -P Name=Value")
		}
		props[k] = v
	}
	return props, nil
}

func writeText(w io.Writer, res *capture.Result, reports []capture.ProjectReport) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	ws := res.Workspace()

	for i, p := range ws.Projects() {
		args, _ := res.TryGetProjectArguments(p)
		title.Fprintf(w, "%s", p.Name)
		dim.Fprintf(w, "%s  %s\n", buildLabel(ws, p), p.ID)
		fmt.Fprintf(w, "  project:    %s\n", p.FilePath)
		fmt.Fprintf(w, "  output:     %s (%s)\n", p.OutputFilePath, p.CompilationOptions.OutputKind)
		fmt.Fprintf(w, "  language:   %s, nullable %s\n", p.ParseOptions.LanguageVersion, p.CompilationOptions.Nullable)
		if len(p.ParseOptions.PreprocessorSymbols) > 0 {
			fmt.Fprintf(w, "  defines:    %s\n", strings.Join(p.ParseOptions.PreprocessorSymbols, ";"))
		}
		fmt.Fprintf(w, "  documents:  %d\n", len(p.Documents))
		for _, d := range p.Documents {
			fmt.Fprintf(w, "    %s\n", d.Name)
		}
		fmt.Fprintf(w, "  references: %d\n", len(p.References))
		for _, dep := range ws.Dependencies(p.ID) {
			fmt.Fprintf(w, "    -> %s\n", dep.Name)
		}
		if args != nil {
			for _, msg := range args.Errors {
				color.New(color.FgYellow).Fprintf(w, "  warning: %s\n", msg)
			}
		}
		if i < len(reports) {
			writeReport(w, reports[i])
		}
	}

	color.New(color.FgGreen).Fprintf(w, "%d projects captured\n", ws.Len())
}

// buildLabel tells apart the builds of a project file compiled more than once,
// typically once per target framework.
func buildLabel(ws *workspace.Workspace, p *workspace.Project) string {
	builds := ws.ProjectsNamed(p.Name)
	if len(builds) < 2 {
		return ""
	}
	for i, b := range builds {
		if b.ID == p.ID {
			return fmt.Sprintf(" [build %d of %d, %s]", i+1, len(builds), filepath.Base(filepath.Dir(p.OutputFilePath)))
		}
	}
	return ""
}

func writeReport(w io.Writer, r capture.ProjectReport) {
	if !r.HasErrors() {
		color.New(color.FgGreen).Fprintf(w, "  syntax:     ok (%d symbols)\n", len(r.Units))
		return
	}
	red := color.New(color.FgRed)
	red.Fprintf(w, "  syntax:     %d problems\n", len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		red.Fprintf(w, "    %s(%d,%d): %s\n", d.File, d.Line, d.Column, d.Message)
	}
}

type projectJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	FilePath     string   `json:"filePath"`
	OutputPath   string   `json:"outputPath,omitempty"`
	OutputKind   string   `json:"outputKind"`
	Defines      []string `json:"defines,omitempty"`
	Documents    []string `json:"documents"`
	References   []string `json:"references"`
	Dependencies []string `json:"dependencies,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Diagnostics  []string `json:"diagnostics,omitempty"`
	Symbols      int      `json:"symbols,omitempty"`
}

func writeJSON(w io.Writer, res *capture.Result, reports []capture.ProjectReport) error {
	ws := res.Workspace()
	out := make([]projectJSON, 0, ws.Len())
	for i, p := range ws.Projects() {
		pj := projectJSON{
			ID:         p.ID.String(),
			Name:       p.Name,
			FilePath:   p.FilePath,
			OutputPath: p.OutputFilePath,
			OutputKind: p.CompilationOptions.OutputKind.String(),
			Defines:    p.ParseOptions.PreprocessorSymbols,
			Documents:  []string{},
			References: []string{},
		}
		for _, d := range p.Documents {
			pj.Documents = append(pj.Documents, d.FilePath)
		}
		for _, r := range p.References {
			pj.References = append(pj.References, r.Path)
		}
		for _, dep := range ws.Dependencies(p.ID) {
			pj.Dependencies = append(pj.Dependencies, dep.ID.String())
		}
		if args, ok := res.TryGetProjectArguments(p); ok {
			pj.Warnings = args.Errors
		}
		if i < len(reports) {
			pj.Symbols = len(reports[i].Units)
			for _, d := range reports[i].Diagnostics {
				pj.Diagnostics = append(pj.Diagnostics, fmt.Sprintf("%s(%d,%d): %s", d.File, d.Line, d.Column, d.Message))
			}
		}
		out = append(out, pj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
