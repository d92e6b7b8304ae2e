package cli

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackchart/pkg/pipeline"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// stackOutput is the --json form of the stack command.
type stackOutput struct {
	Series   []stack.Series `json:"series"`
	Warnings []string       `json:"warnings,omitempty"`
}

// stackCommand creates the stack command, which stacks a chart's data
// without laying it out.
func (c *CLI) stackCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stack <chart.toml>",
		Short: "Stack a chart's data and print the series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := loadChart(args[0])
			if err != nil {
				return err
			}

			// Stacking is never cached, so the runner needs no backend.
			r := pipeline.NewRunner(nil, nil, c.Logger)
			defer r.Close()

			res, err := r.Stack(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stackOutput{Series: res.Series, Warnings: res.Warnings})
			}

			for _, w := range res.Warnings {
				printWarning("%s", w)
			}
			printSuccess("Stacked %s", filepath.Base(args[0]))
			printKeyValue("order", string(res.Order))
			printKeyValue("offset", string(res.Offset))
			printSeriesTable(cmd.OutOrStdout(), res.Series)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stacked series as JSON")

	return cmd
}
