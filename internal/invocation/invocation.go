// Package invocation defines compiler invocation records and readers that
// recover them from a build's structured log.
package invocation

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"buildcap/internal/errors"
)

// Language tags carried by invocations.
const (
	LanguageCSharp      = "C#"
	LanguageVisualBasic = "VB"
)

// Invocation is one compiler process launched by the build driver.
type Invocation struct {
	Language         string `json:"language"`
	ProjectFilePath  string `json:"projectFilePath"`
	ProjectDirectory string `json:"projectDirectory"`
	CommandLine      string `json:"commandLineArguments"`
}

// Reader turns a structured build log into invocations, in log order.
type Reader interface {
	ReadInvocations(ctx context.Context, logPath string) ([]Invocation, error)
}

// JSONLinesReader reads one JSON invocation object per line. Gzip input is
// detected and decompressed.
type JSONLinesReader struct{}

func (JSONLinesReader) ReadInvocations(ctx context.Context, logPath string) ([]Invocation, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open invocation log")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open gzip invocation log")
		}
		defer zr.Close()
		zbr := bufio.NewReader(zr)
		if first, _ := zbr.Peek(1); len(first) == 1 && !isJSONLineStart(first[0]) {
			return nil, errors.WithHint(
				errors.Wrapf(ErrBinaryLog, "%s", logPath),
				"set reader.command / BUILDCAP_READER_COMMAND to a binlog converter",
			)
		}
		r = zbr
	}
	return Decode(ctx, r)
}

// ErrBinaryLog is returned by JSONLinesReader for a compressed log that does
// not hold JSON lines, such as the driver's own binary log.
var ErrBinaryLog = errors.New("log is a binary build log, not JSON lines")

func isJSONLineStart(b byte) bool {
	switch b {
	case '{', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// CommandReader runs an external converter that prints the invocations of a
// binary log as JSON lines: `<Command> <Args...> <logPath>`.
type CommandReader struct {
	Command string
	Args    []string
}

func (c CommandReader) ReadInvocations(ctx context.Context, logPath string) ([]Invocation, error) {
	args := append(append([]string{}, c.Args...), logPath)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.WithDetail(
			errors.Wrapf(err, "invocation reader %s failed", c.Command),
			strings.TrimSpace(stderr.String()),
		)
	}
	return Decode(ctx, &stdout)
}

// Decode parses JSON lines. Blank lines are skipped. A missing project
// directory is derived from the project file path.
func Decode(ctx context.Context, r io.Reader) ([]Invocation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64<<20)

	var out []Invocation
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var inv Invocation
		if err := json.Unmarshal(line, &inv); err != nil {
			return nil, errors.Wrapf(err, "invalid invocation record on line %d", lineNo)
		}
		if inv.ProjectDirectory == "" && inv.ProjectFilePath != "" {
			inv.ProjectDirectory = filepath.Dir(inv.ProjectFilePath)
		}
		out = append(out, inv)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read invocation log")
	}
	return out, nil
}
