package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func collectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collect [source...]",
		Short: "Run collection for the named sources (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			outcomes := app.pipeline.RunManualCollection(cmd.Context(), args)
			failed := 0
			for _, o := range outcomes {
				line := fmt.Sprintf("%-20s %s", o.Source, o.Status)
				if o.Error != "" {
					line += ": " + o.Error
				}
				cmd.Println(line)
				if o.Status != "completed" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources did not complete", failed, len(outcomes))
			}
			return nil
		},
	}
}
