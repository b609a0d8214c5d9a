package textutil

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SoftHyphen is the discretionary hyphen control character (U+00AD).
const SoftHyphen = "\u00ad"

// CollapseWhitespace replaces every run of whitespace (including no-break
// spaces and forced line breaks) with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// Normalize applies NFC composition and collapses whitespace.
func Normalize(s string) string {
	return CollapseWhitespace(norm.NFC.String(s))
}

// IsBlank reports whether s holds nothing but whitespace.
func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !isSpace(r) }) < 0
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.FieldsFunc(s, isSpace))
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// EscapeControl renders control and format characters visibly so a value
// always fits on one report line.
func EscapeControl(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if unicode.IsControl(r) || unicode.In(r, unicode.Cf) || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Snippet returns a trimmed, escaped excerpt of at most max runes.
func Snippet(s string, max int) string {
	s = EscapeControl(strings.TrimSpace(s))
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// Timestamp formats t as a filename-safe UTC timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// fold strips diacritics so "cliënt" becomes "client".
var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func asciiFold(s string) string {
	out, _, err := transform.String(fold, s)
	if err != nil {
		return s
	}
	return out
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(asciiFold(s)))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}

// SanitizeFilename strips path components and traversal sequences from an
// uploaded or user-supplied file name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, asciiFold(name))
	if name == "" || name == "." || name == "_" {
		name = "unnamed"
	}
	return name
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
