package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func runCommand() *cobra.Command {
	stages := map[string]func(*app, context.Context) error{
		"scrape":          func(a *app, ctx context.Context) error { return a.pipeline.Scrape(ctx) },
		"generate":        func(a *app, ctx context.Context) error { return a.pipeline.Generate(ctx) },
		"funding_stories": func(a *app, ctx context.Context) error { return a.pipeline.GenerateFundingStories(ctx) },
		"valuations":      func(a *app, ctx context.Context) error { return a.pipeline.UpdateValuations(ctx) },
		"revalidate":      func(a *app, ctx context.Context) error { return a.pipeline.Revalidate(ctx) },
		"maintenance":     func(a *app, ctx context.Context) error { return a.pipeline.Maintain(ctx) },
	}

	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)

	return &cobra.Command{
		Use:       "run <stage>",
		Short:     "Run a single pipeline stage once",
		Long:      "Run one stage and exit. Stages: " + strings.Join(names, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, ok := stages[args[0]]
			if !ok {
				return fmt.Errorf("unknown stage %q, expected one of: %s", args[0], strings.Join(names, ", "))
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			return stage(app, cmd.Context())
		},
	}
}
