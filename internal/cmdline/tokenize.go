// Package cmdline splits captured compiler command lines into argument
// vectors and escapes values for the build driver's command line.
//
// The grammar is not shell quoting. Tokens are separated by whitespace
// outside quoted regions, a token may contain any number of regions
// delimited by '"', and inside a region a '"' directly preceded by '\' is
// literal. Only that one preceding character is inspected, so `\\"` still
// escapes the quote.
package cmdline

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"buildcap/internal/errors"
)

// TokenizerError reports a quoted region with no closing quote.
type TokenizerError struct {
	Input  string // the raw command line
	Offset int    // byte offset of the opening quote
}

func (e *TokenizerError) Error() string {
	return fmt.Sprintf("invalid command line: quoted region at offset %d is not terminated by a closing `\"`: %s", e.Offset, e.Input)
}

// Tokenize splits a command line into its arguments.
func Tokenize(commandLine string) ([]string, error) {
	args := []string{}
	var arg strings.Builder
	inArg := false

	for i := 0; i < len(commandLine); {
		r, size := utf8.DecodeRuneInString(commandLine[i:])

		if unicode.IsSpace(r) {
			if inArg {
				args = append(args, arg.String())
				arg.Reset()
				inArg = false
			}
			i += size
			continue
		}

		inArg = true
		if r != '"' {
			arg.WriteRune(r)
			i += size
			continue
		}

		open := i
		i += size
		closed := false
		var prev rune
		for i < len(commandLine) {
			c, n := utf8.DecodeRuneInString(commandLine[i:])
			i += n
			if c == '"' && prev != '\\' {
				closed = true
				break
			}
			arg.WriteRune(c)
			prev = c
		}
		if !closed {
			return nil, errors.WithStack(&TokenizerError{Input: commandLine, Offset: open})
		}
	}

	if inArg {
		args = append(args, arg.String())
	}
	return args, nil
}

// StripExecutable drops the executable prefix some captured invocations
// carry (e.g. `dotnet exec csc.dll /noconfig ...`) by cutting everything
// before the first ` /` option marker. Without a marker the input is
// returned unchanged.
func StripExecutable(commandLine string) string {
	if idx := strings.Index(commandLine, " /"); idx >= 0 {
		return commandLine[idx+1:]
	}
	return commandLine
}

var needsQuotes = regexp.MustCompile(`[\s:]`)

// EscapeValue prepares a value for the driver command line: embedded quotes
// are backslash-escaped and the value is quoted when it holds whitespace or
// a colon.
func EscapeValue(value string) string {
	value = strings.ReplaceAll(value, `"`, `\"`)
	if needsQuotes.MatchString(value) {
		return `"` + value + `"`
	}
	return value
}
