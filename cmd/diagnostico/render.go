package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/export"
	"github.com/hazyhaar/diagnostico/generation"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/wizard"
)

func newRenderCmd(gf *globalFlags) *cobra.Command {
	var (
		section    string
		regenerate bool
		markdown   bool
		fields     = map[string]*string{}
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Resolve one section for an intake given on flags and print it",
		Example: `  diagnostico render --section roi --client-name Acme --industry Tecnologia \
    --area "Vendas lentas" --context "50 funcionários" --objective "Aumentar conversão 15%"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg, cmd.ErrOrStderr())
			defer closer.Close()

			sec, ok := wizard.ParseSection(section)
			if !ok {
				return fmt.Errorf("%w: %q", content.ErrInvalidSection, section)
			}
			values := make(map[string]string, len(fields))
			for k, v := range fields {
				values[k] = *v
			}
			rec, err := intake.FromMap(values, cfg.IntakeOptions(), time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			backend := generation.New(ctx, cfg.GenerationBackend(), logger)
			resolver, err := content.New(backend, cfg.ContentPolicy(), content.WithLogger(logger))
			if err != nil {
				return err
			}
			resolve := resolver.Resolve
			if regenerate {
				resolve = resolver.Regenerate
			}
			res, err := resolve(ctx, sec, rec)
			if err != nil {
				return err
			}

			out := res.HTML
			if markdown {
				if out, err = export.New().Section(res); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&section, "section", "", "section id (scope, map, roi, roadmap, brief)")
	f.BoolVar(&regenerate, "regenerate", false, "use the alternate prompt")
	f.BoolVar(&markdown, "markdown", false, "print Markdown instead of HTML")
	for _, fl := range []struct{ key, name, usage string }{
		{intake.KeyClientName, "client-name", "client name"},
		{intake.KeyContact, "contact", "contact person"},
		{intake.KeyIndustry, "industry", "industry"},
		{intake.KeyCompanySize, "company-size", "company size"},
		{intake.KeyProblemArea, "area", "main problem area"},
		{intake.KeyContext, "context", "context and relevant data"},
		{intake.KeyObjective, "objective", "main objective"},
		{intake.KeyAnnualRevenue, "annual-revenue", "annual revenue in BRL"},
		{intake.KeyTimeline, "timeline", "timeline in days (30, 60, 90, 180)"},
	} {
		fields[fl.key] = f.String(fl.name, "", fl.usage)
	}
	cmd.MarkFlagRequired("section")
	return cmd
}
