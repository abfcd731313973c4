package posts

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Letters with no NFD decomposition that still have an obvious ASCII form.
var foldASCII = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"đ", "d",
	"ł", "l",
)

// Slugify turns a title into a URL-safe slug: accents stripped, lowercased,
// runs of non-alphanumerics collapsed to single dashes.
func Slugify(title string) string {
	flat, _, err := transform.String(deaccent, title)
	if err != nil {
		flat = title
	}

	var b strings.Builder
	dash := false
	for _, r := range foldASCII.Replace(strings.ToLower(flat)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
