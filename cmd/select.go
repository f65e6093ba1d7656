package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [text...]",
	Short: "Save text as the current selection for later commands",
	Long: `Save text as the current selection. Commands run without text use it;
the HTTP API fills the same slot when a page reports a text selection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if show, _ := cmd.Flags().GetBool("show"); show {
			sel, err := a.notebooks.Selection(ctx)
			if err != nil {
				return err
			}
			if sel == "" {
				fmt.Fprintln(out, "No selection saved.")
				return nil
			}
			fmt.Fprintln(out, sel)
			return nil
		}

		text, err := inputText(ctx, a, args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := a.notebooks.SaveSelection(ctx, text); err != nil {
			return err
		}
		fmt.Fprintf(out, "Selection saved (%d characters).\n", len([]rune(text)))
		return nil
	},
}

func init() {
	selectCmd.Flags().Bool("show", false, "print the saved selection")
}
