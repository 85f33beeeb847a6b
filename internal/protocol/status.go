package protocol

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusChunkSize is the read size used by the text status path
const StatusChunkSize = 80

// NormalizeStatus trims a raw status chunk and title-cases it.
// Returns "" for chunks that hold only whitespace.
//
// Every run of cased letters starts a new word, so "CH_STATUS 0612 LOCAL"
// becomes "Ch_Status 0612 Local" and "a1b" becomes "A1B".
func NormalizeStatus(chunk []byte) string {
	text := strings.TrimSpace(string(chunk))
	if text == "" {
		return ""
	}

	title := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(text))

	start := -1
	for i, r := range text {
		if isCased(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(title.String(text[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(title.String(text[start:]))
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}
