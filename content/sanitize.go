package content

import "github.com/microcosm-cc/bluemonday"

// newSanitizer allows user-generated-content markup plus the Bootstrap class
// and data attributes the section layouts rely on.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowElements("div", "span", "i", "small", "section", "header", "footer")
	p.AllowTables()
	return p
}
