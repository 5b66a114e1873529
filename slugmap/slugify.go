package slugmap

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// germanTranslit maps umlauts and eszett to their ASCII digraphs before
// diacritic stripping, so "Träume" becomes "traeume" rather than
// "traume".
var germanTranslit = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// stripMarks removes combining marks after NFKD decomposition, turning
// "é" into "e".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify normalizes a title into a URL-safe slug: lowercase, umlauts
// transliterated, diacritics stripped, non-alphanumeric runs collapsed
// to single hyphens, leading and trailing hyphens trimmed.
func Slugify(text string) string {
	value := strings.ToLower(strings.TrimSpace(text))
	value = germanTranslit.Replace(value)
	if stripped, _, err := transform.String(stripMarks, value); err == nil {
		value = stripped
	}

	var sb strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
