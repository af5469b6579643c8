// Package wizard defines the six-step diagnostic wizard as a closed, ordered
// set of states. Progression is strictly linear: each step knows its previous
// and next neighbour, and every step after Home is guarded by the presence of
// an intake record in the session.
//
//	Home → Scope → SystemsMap → ROI → Roadmap → Brief
//
// The package holds no state. Callers ask Navigate which step to show given
// the requested step and whether the session carries intake data.
package wizard

import "fmt"

// Step is one of the six wizard states, indexed 1..6.
type Step int

const (
	Home Step = iota + 1
	Scope
	SystemsMap
	ROI
	Roadmap
	Brief
)

// Section identifies the content produced for a post-intake step. The string
// values are the wire identifiers used by /api/regenerate and the page DOM.
type Section string

const (
	SectionScope   Section = "scope"
	SectionMap     Section = "map"
	SectionROI     Section = "roi"
	SectionRoadmap Section = "roadmap"
	SectionBrief   Section = "brief"
)

type stepInfo struct {
	name    string
	path    string
	label   string
	section Section
}

var steps = [...]stepInfo{
	Home:       {name: "home", path: "/", label: "Dados"},
	Scope:      {name: "scope", path: "/scope", label: "Escopo", section: SectionScope},
	SystemsMap: {name: "map", path: "/map", label: "Sistemas", section: SectionMap},
	ROI:        {name: "roi", path: "/roi", label: "ROI", section: SectionROI},
	Roadmap:    {name: "roadmap", path: "/roadmap", label: "Roadmap", section: SectionRoadmap},
	Brief:      {name: "brief", path: "/brief", label: "Brief", section: SectionBrief},
}

// All returns the steps in wizard order.
func All() []Step {
	return []Step{Home, Scope, SystemsMap, ROI, Roadmap, Brief}
}

// Sections returns the five content sections in wizard order.
func Sections() []Section {
	return []Section{SectionScope, SectionMap, SectionROI, SectionRoadmap, SectionBrief}
}

// Valid reports whether s is one of the six known steps.
func (s Step) Valid() bool { return s >= Home && s <= Brief }

// Index returns the 1-based position of the step.
func (s Step) Index() int { return int(s) }

// Name returns the short identifier ("home", "scope", "map", ...).
func (s Step) Name() string {
	if !s.Valid() {
		return ""
	}
	return steps[s].name
}

// Path returns the HTTP path serving the step.
func (s Step) Path() string {
	if !s.Valid() {
		return "/"
	}
	return steps[s].path
}

// Label returns the human-readable label shown in the step indicator.
func (s Step) Label() string {
	if !s.Valid() {
		return ""
	}
	return steps[s].label
}

// Section returns the content section rendered on the step. Home has none.
func (s Step) Section() (Section, bool) {
	if !s.Valid() || s == Home {
		return "", false
	}
	return steps[s].section, true
}

// Guarded reports whether the step requires an intake record.
func (s Step) Guarded() bool { return s.Valid() && s != Home }

// Prev returns the previous step. Home has no predecessor.
func (s Step) Prev() (Step, bool) {
	if !s.Valid() || s == Home {
		return 0, false
	}
	return s - 1, true
}

// Next returns the following step. Brief is the last step.
func (s Step) Next() (Step, bool) {
	if !s.Valid() || s == Brief {
		return 0, false
	}
	return s + 1, true
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return s.Name()
}

// Navigate resolves a navigation request. A guarded step requested without
// intake data always resolves to Home; every other request is honoured.
func Navigate(target Step, hasIntake bool) Step {
	if !target.Valid() {
		return Home
	}
	if target.Guarded() && !hasIntake {
		return Home
	}
	return target
}

// ParseSection validates a wire identifier.
func ParseSection(s string) (Section, bool) {
	switch Section(s) {
	case SectionScope, SectionMap, SectionROI, SectionRoadmap, SectionBrief:
		return Section(s), true
	}
	return "", false
}

// Step returns the wizard step on which the section is rendered.
func (s Section) Step() Step {
	switch s {
	case SectionScope:
		return Scope
	case SectionMap:
		return SystemsMap
	case SectionROI:
		return ROI
	case SectionRoadmap:
		return Roadmap
	case SectionBrief:
		return Brief
	}
	return 0
}

// Indicator is one entry of the step indicator: a step plus whether it is at
// or before the current step.
type Indicator struct {
	Step   Step
	Active bool
}

// Indicators returns the indicator row for the current step. Steps up to and
// including current are active; an invalid current step marks only Home.
func Indicators(current Step) []Indicator {
	if !current.Valid() {
		current = Home
	}
	out := make([]Indicator, 0, len(steps)-1)
	for _, s := range All() {
		out = append(out, Indicator{Step: s, Active: s <= current})
	}
	return out
}
