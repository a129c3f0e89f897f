package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildStableSymbolID creates a deterministic symbol ID.
// The ID is derived from semantic-ish identity fields and a canonical signature hash.
func BuildStableSymbolID(unit *CodeUnit) string {
	if unit == nil {
		return ""
	}

	lang := strings.TrimSpace(unit.Language)
	if lang == "" {
		lang = "unknown"
	}

	ns := strings.TrimSpace(unit.Namespace)
	if ns == "" {
		ns = "_"
	}

	kind := strings.TrimSpace(unit.UnitType)
	if kind == "" {
		kind = "symbol"
	}

	name := strings.TrimSpace(unit.Name)
	if name == "" {
		name = "_"
	}
	if unit.Container != "" {
		name = unit.Container + "." + name
	}

	signature := canonicalize(extractSignature(unit))
	if signature == "" {
		signature = canonicalize(unit.Content)
	}

	fingerprint := strings.Join([]string{
		lang,
		ns,
		kind,
		name,
		signature,
	}, "|")

	return fmt.Sprintf("%s/%s:%s:%s:%016x", lang, ns, kind, name, xxhash.Sum64String(fingerprint))
}

func extractSignature(unit *CodeUnit) string {
	if unit == nil || unit.Details == nil {
		return ""
	}

	switch d := unit.Details.(type) {
	case CSharpMethodDetails:
		return d.Signature
	case *CSharpMethodDetails:
		if d != nil {
			return d.Signature
		}
	}
	return ""
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
