// Package objname derives object-store keys from human-readable names.
package objname

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 120

// Slug folds name to lowercase ASCII words joined by '-'. Diacritics are
// dropped ("Electrónica" becomes "electronica"). Distinct names can share a
// slug, and therefore an object key.
func Slug(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	if out == "" {
		return "untitled"
	}
	return out
}

// Key joins prefix and the slug of name, adding ext when set.
func Key(prefix, name, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	file := Slug(name)
	if ext != "" {
		file += "." + ext
	}
	return path.Join(strings.Trim(prefix, "/"), file)
}
