package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML extracts the text content of a description field. Source rows
// arrive with rich-text markup; plain strings pass through untouched.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tok.Text())
			b.WriteByte(' ')
		}
	}
}
