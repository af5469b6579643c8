package content

import "github.com/hazyhaar/diagnostico/wizard"

// Default sampling temperatures. The brief is kept conservative, the systems
// map is allowed the most variety.
const (
	TemperatureBrief   = 0.5
	TemperatureROI     = 0.6
	TemperatureDefault = 0.7
	TemperatureMap     = 0.8
)

// DefaultMinLength is the shortest cleaned answer accepted as generated content.
const DefaultMinLength = 10

// Policy is the immutable generation policy of a Resolver.
type Policy struct {
	// Temperatures overrides the sampling temperature per section.
	Temperatures map[wizard.Section]float64
	// DefaultTemperature applies to sections absent from Temperatures.
	DefaultTemperature float64
	// MinLength is the minimum length of a cleaned answer.
	MinLength int
	// Sanitize filters generated HTML through a bluemonday policy. Off by
	// default: generated markup is trusted as-is.
	Sanitize bool
}

// DefaultPolicy returns the stock temperatures and minimum length.
func DefaultPolicy() Policy {
	return Policy{
		Temperatures: map[wizard.Section]float64{
			wizard.SectionBrief: TemperatureBrief,
			wizard.SectionROI:   TemperatureROI,
			wizard.SectionMap:   TemperatureMap,
		},
		DefaultTemperature: TemperatureDefault,
		MinLength:          DefaultMinLength,
	}
}

// Temperature returns the sampling temperature for sec.
func (p Policy) Temperature(sec wizard.Section) float64 {
	if t, ok := p.Temperatures[sec]; ok {
		return t
	}
	if p.DefaultTemperature > 0 {
		return p.DefaultTemperature
	}
	return TemperatureDefault
}

func (p Policy) minLength() int {
	if p.MinLength > 0 {
		return p.MinLength
	}
	return DefaultMinLength
}

// clone copies the temperature map so the Resolver never shares it with the caller.
func (p Policy) clone() Policy {
	temps := make(map[wizard.Section]float64, len(p.Temperatures))
	for k, v := range p.Temperatures {
		temps[k] = v
	}
	p.Temperatures = temps
	return p
}
