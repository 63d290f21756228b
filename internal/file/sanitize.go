package file

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultDisplayName = "unnamed"
	fallbackBaseName   = "file"
	maxBaseNameLen     = 128
)

// displayName is what the owner sees; it is stored as given.
func displayName(original string) string {
	if strings.TrimSpace(original) == "" {
		return defaultDisplayName
	}
	return original
}

// sanitizeBaseName reduces a client-supplied name to a safe ASCII base name.
// Directory components are dropped and anything outside [A-Za-z0-9._-] becomes '_'.
func sanitizeBaseName(original string) string {
	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)
	if s == "." || s == ".." || s == "/" || s == "" {
		return fallbackBaseName
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}

	name := strings.Trim(b.String(), "._")
	if name == "" {
		return fallbackBaseName
	}
	if len(name) > maxBaseNameLen {
		ext := path.Ext(name)
		if len(ext) >= maxBaseNameLen {
			ext = ""
		}
		name = name[:maxBaseNameLen-len(ext)] + ext
	}
	return name
}
