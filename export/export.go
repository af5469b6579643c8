// Package export renders resolved diagnostic sections as a Markdown document.
package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/intake"
)

// Exporter converts section HTML to Markdown. Safe for concurrent use.
type Exporter struct {
	conv *converter.Converter
}

// New returns an Exporter with the CommonMark and table plugins.
func New() *Exporter {
	return &Exporter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Section converts one section's HTML.
func (e *Exporter) Section(res content.Result) (string, error) {
	md, err := e.conv.ConvertString(res.HTML)
	if err != nil {
		return "", fmt.Errorf("export: convert %s: %w", res.Section, err)
	}
	return strings.TrimSpace(md), nil
}

// Document renders a full Markdown document: a title block from rec, then
// each section under its step label.
func (e *Exporter) Document(rec intake.Record, sections []content.Result, issued time.Time) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Diagnóstico Estratégico: %s\n\n", plain(rec.ClientName))
	fmt.Fprintf(&b, "- **Setor:** %s\n", plain(rec.Industry))
	if rec.CompanySize != "" {
		fmt.Fprintf(&b, "- **Porte:** %s\n", plain(rec.CompanySize))
	}
	fmt.Fprintf(&b, "- **Foco:** %s\n", plain(rec.ProblemArea))
	fmt.Fprintf(&b, "- **Objetivo:** %s\n", plain(rec.Objective))
	if rev := rec.RevenueLabel(); rev != "" {
		fmt.Fprintf(&b, "- **Faturamento anual:** %s\n", rev)
	}
	fmt.Fprintf(&b, "- **Prazo:** %s\n", rec.TimelineLabel())
	fmt.Fprintf(&b, "- **Emitido em:** %s\n", issued.Format("02/01/2006"))

	for _, res := range sections {
		md, err := e.Section(res)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", res.Section.Step().Label(), md)
	}
	return []byte(b.String()), nil
}

// plain undoes the intake escaping for text placed outside HTML.
func plain(s string) string {
	return html.UnescapeString(s)
}
