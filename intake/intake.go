// Package intake parses and validates the client intake form submitted on the
// first wizard step and produces the Record held in the session.
//
// Every string field is trimmed and HTML-escaped before it leaves this
// package: the record is interpolated into markup and prompts downstream and
// must never carry raw client input.
package intake

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Form keys of the intake form.
const (
	KeyClientName    = "client_name"
	KeyContact       = "contact"
	KeyIndustry      = "industry"
	KeyCompanySize   = "company_size"
	KeyProblemArea   = "area"
	KeyContext       = "context"
	KeyObjective     = "objective"
	KeyAnnualRevenue = "annual_revenue"
	KeyTimeline      = "timeline"
)

// DefaultTimelineDays is used when the timeline is missing or not allowed.
const DefaultTimelineDays = 60

var allowedTimelines = []int{30, 60, 90, 180}

// Record is the intake data bag stored once per session.
type Record struct {
	ClientName    string    `json:"client_name"`
	Contact       string    `json:"contact,omitempty"`
	Industry      string    `json:"industry"`
	CompanySize   string    `json:"company_size,omitempty"`
	ProblemArea   string    `json:"area"`
	Context       string    `json:"context"`
	Objective     string    `json:"objective"`
	AnnualRevenue *float64  `json:"annual_revenue,omitempty"`
	TimelineDays  int       `json:"timeline"`
	CreatedAt     time.Time `json:"created_at"`
}

// Field names a form key together with the label shown to the user.
type Field struct {
	Key   string
	Label string
}

var (
	fieldClientName  = Field{KeyClientName, "Nome do Cliente"}
	fieldIndustry    = Field{KeyIndustry, "Setor/Indústria"}
	fieldCompanySize = Field{KeyCompanySize, "Tamanho da Empresa"}
	fieldProblemArea = Field{KeyProblemArea, "Área Foco / Problema Principal"}
	fieldContext     = Field{KeyContext, "Contexto e Dados Relevantes"}
	fieldObjective   = Field{KeyObjective, "Objetivo Principal"}
)

// Options selects the validation policy.
type Options struct {
	// RequireCompanySize adds company_size to the required set.
	RequireCompanySize bool
}

// RequiredFields returns the required fields in form order.
func (o Options) RequiredFields() []Field {
	fields := []Field{fieldClientName, fieldIndustry}
	if o.RequireCompanySize {
		fields = append(fields, fieldCompanySize)
	}
	return append(fields, fieldProblemArea, fieldContext, fieldObjective)
}

// ValidationError lists every required field that was blank.
type ValidationError struct {
	Missing []Field
}

func (e *ValidationError) Error() string {
	labels := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		labels[i] = f.Label
	}
	return "intake: missing required fields: " + strings.Join(labels, ", ")
}

// Labels returns the human-readable names of the missing fields.
func (e *ValidationError) Labels() []string {
	out := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		out[i] = f.Label
	}
	return out
}

// Validate reports every required field whose trimmed value is empty.
// It returns nil when the form is complete.
func Validate(values url.Values, opts Options) *ValidationError {
	var missing []Field
	for _, f := range opts.RequiredFields() {
		if strings.TrimSpace(values.Get(f.Key)) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Missing: missing}
}

// Parse validates values and builds a normalized, escaped Record stamped
// with now. On a validation failure the returned error is a *ValidationError.
func Parse(values url.Values, opts Options, now time.Time) (Record, error) {
	if verr := Validate(values, opts); verr != nil {
		return Record{}, verr
	}
	return Record{
		ClientName:    clean(values.Get(KeyClientName)),
		Contact:       clean(values.Get(KeyContact)),
		Industry:      clean(values.Get(KeyIndustry)),
		CompanySize:   clean(values.Get(KeyCompanySize)),
		ProblemArea:   clean(values.Get(KeyProblemArea)),
		Context:       clean(values.Get(KeyContext)),
		Objective:     clean(values.Get(KeyObjective)),
		AnnualRevenue: parseRevenue(values.Get(KeyAnnualRevenue)),
		TimelineDays:  parseTimeline(values.Get(KeyTimeline)),
		CreatedAt:     now,
	}, nil
}

// FromMap is Parse for callers holding plain key/value pairs (MCP, CLI).
func FromMap(m map[string]string, opts Options, now time.Time) (Record, error) {
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, v)
	}
	return Parse(values, opts, now)
}

func clean(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func parseTimeline(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultTimelineDays
	}
	for _, allowed := range allowedTimelines {
		if n == allowed {
			return n
		}
	}
	return DefaultTimelineDays
}

func parseRevenue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// TimelineLabel renders the timeline for display ("60 dias", "6 meses").
func (r Record) TimelineLabel() string {
	if r.TimelineDays == 180 {
		return "6 meses"
	}
	return fmt.Sprintf("%d dias", r.TimelineDays)
}

// RevenueLabel renders the optional annual revenue in BRL, or "" when absent.
func (r Record) RevenueLabel() string {
	if r.AnnualRevenue == nil {
		return ""
	}
	whole := strconv.FormatInt(int64(math.Round(*r.AnnualRevenue)), 10)
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return "R$ " + b.String()
}

// Option is a selectable value of an enumerated intake field.
type Option struct {
	Value string
	Label string
}

// Industries lists the industries offered by the intake form. Industry is
// still accepted as free text.
func Industries() []Option {
	return []Option{
		{"varejo", "Varejo"},
		{"servicos", "Serviços"},
		{"industria", "Indústria"},
		{"tecnologia", "Tecnologia"},
		{"saude", "Saúde"},
		{"educacao", "Educação"},
		{"financeiro", "Financeiro"},
	}
}

// CompanySizes lists the company size buckets offered by the intake form.
func CompanySizes() []Option {
	return []Option{
		{"pequena", "Pequena (1-50 funcionários)"},
		{"media", "Média (51-500 funcionários)"},
		{"grande", "Grande (501+ funcionários)"},
	}
}

// Timelines lists the allowed timeline values in days.
func Timelines() []int {
	return append([]int(nil), allowedTimelines...)
}
