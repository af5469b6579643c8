package export

import (
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/wizard"
)

func TestSection(t *testing.T) {
	e := New()
	md, err := e.Section(content.Result{
		Section: wizard.SectionScope,
		HTML:    "<h4>Metas</h4><ul><li><strong>Meta 1:</strong> reduzir custos</li></ul>",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"#### Metas", "**Meta 1:**", "reduzir custos"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown lacks %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "<li>") {
		t.Errorf("html survived:\n%s", md)
	}
}

func TestDocument(t *testing.T) {
	rev := 5_000_000.0
	rec := intake.Record{
		ClientName:    "Acme &amp; Filhos",
		Industry:      "Varejo",
		ProblemArea:   "Estoque",
		Objective:     "Reduzir ruptura",
		AnnualRevenue: &rev,
		TimelineDays:  90,
	}
	sections := []content.Result{
		{Section: wizard.SectionBrief, HTML: "<p>Resumo executivo</p>"},
	}
	out, err := New().Document(rec, sections, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	for _, want := range []string{
		"# Diagnóstico Estratégico: Acme & Filhos",
		"**Faturamento anual:** R$ 5.000.000",
		"**Prazo:** 90 dias",
		"**Emitido em:** 09/04/2026",
		"## Brief",
		"Resumo executivo",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document lacks %q:\n%s", want, doc)
		}
	}
}

func TestSection_Table(t *testing.T) {
	md, err := New().Section(content.Result{
		Section: wizard.SectionMap,
		HTML:    "<table><thead><tr><th>Sistema</th><th>Função</th></tr></thead><tbody><tr><td>ERP</td><td>Financeiro</td></tr></tbody></table>",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "| Sistema") || !strings.Contains(md, "| ERP") {
		t.Fatalf("table not converted:\n%s", md)
	}
}
