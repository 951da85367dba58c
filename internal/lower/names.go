package lower

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// sanitize turns a sprite or variable name into an identifier fragment:
// NFC-normalized, spaces and punctuation replaced with '_'.
func sanitize(name string) string {
	name = norm.NFC.String(name)
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// targetIdent is the sanitized target name, which starts every generated C
// name, so it must not begin with a digit. The Scratch prefix belongs to the
// runtime and to variable storage.
func targetIdent(name string) string {
	s := sanitize(name)
	if s == "" || unicode.IsDigit([]rune(s)[0]) || strings.HasPrefix(s, "Scratch") {
		s = "_" + s
	}
	return s
}

// qualify builds the global name of a variable owned by target:
// "<target>_<identifier>" with spaces turned into '_'. Other characters are
// kept; the emitter mangles the result into a C identifier.
func qualify(target, ident string) string {
	return strings.ReplaceAll(norm.NFC.String(target)+"_"+norm.NFC.String(ident), " ", "_")
}
