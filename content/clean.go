package content

import "strings"

// Clean strips the code fences a model tends to wrap HTML in, and one pair of
// surrounding quotes.
//
//	"```html\n<p>x</p>\n```" -> "<p>x</p>"
func Clean(s string) string {
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```HTML", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
