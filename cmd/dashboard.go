package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingopad/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [lang]",
	Short: "Show notebooks and skill confidence per language",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		nb, err := a.notebooks.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		opts := dashboard.Options{}
		if len(args) == 1 {
			opts.Scope = args[0]
		}
		opts.Width, _ = cmd.Flags().GetInt("width")

		last, err := a.notebooks.LastAnalysis(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		lipgloss.Fprint(out, dashboard.Render(nb, opts))
		if last != nil && len(last.SuggestedNext) > 0 {
			fmt.Fprintln(out)
			printReport(out, last)
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().Int("width", 72, "render width in columns")
}
