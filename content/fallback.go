package content

import (
	"embed"
	"fmt"

	"github.com/hazyhaar/diagnostico/generation"
	"github.com/hazyhaar/diagnostico/wizard"
)

//go:embed fallback/*.html
var fallbackFS embed.FS

var fallbackKinds = []generation.Kind{
	generation.KindNotConfigured,
	generation.KindQuota,
	generation.KindTransient,
}

type fallbackKey struct {
	section wizard.Section
	kind    generation.Kind
}

// fallbacks holds every (section, failure kind) fragment, assembled once.
type fallbacks map[fallbackKey]string

func loadFallbacks() (fallbacks, error) {
	notices := make(map[generation.Kind]string, len(fallbackKinds))
	for _, k := range fallbackKinds {
		raw, err := fallbackFS.ReadFile("fallback/notice_" + k.String() + ".html")
		if err != nil {
			return nil, fmt.Errorf("content: read notice %s: %w", k, err)
		}
		notices[k] = string(raw)
	}

	out := make(fallbacks, len(fallbackKinds)*len(wizard.Sections()))
	for _, sec := range wizard.Sections() {
		body, err := fallbackFS.ReadFile("fallback/" + string(sec) + ".html")
		if err != nil {
			return nil, fmt.Errorf("content: read fallback %s: %w", sec, err)
		}
		for _, k := range fallbackKinds {
			out[fallbackKey{sec, k}] = notices[k] + string(body)
		}
	}
	return out, nil
}

// get returns the fragment for sec and kind. Unknown kinds use the transient
// notice.
func (f fallbacks) get(sec wizard.Section, kind generation.Kind) string {
	if s, ok := f[fallbackKey{sec, kind}]; ok {
		return s
	}
	return f[fallbackKey{sec, generation.KindTransient}]
}
