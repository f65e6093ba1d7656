package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingopad/internal/dashboard"
)

var notebookCmd = &cobra.Command{
	Use:     "notebook",
	Aliases: []string{"nb"},
	Short:   "Browse and manage per-language notebooks",
}

var notebookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks with their entry counts",
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
		out := cmd.OutOrStdout()
		if len(nb) == 0 {
			fmt.Fprintln(out, "No notebooks yet.")
			return nil
		}
		for _, lang := range nb.Languages() {
			fmt.Fprintf(out, "%-4s %-12s %d\n", lang, dashboard.DisplayName(lang), len(nb[lang]))
		}
		return nil
	},
}

var notebookShowCmd = &cobra.Command{
	Use:   "show <lang>",
	Short: "Show a notebook's entries with their indexes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.notebooks.ListFor(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), dashboard.RenderEntries(args[0], entries))
		return nil
	},
}

var notebookDeleteCmd = &cobra.Command{
	Use:   "delete <lang> <index>",
	Short: "Delete one entry by its index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[1], err)
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.notebooks.Delete(cmd.Context(), args[0], index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d from %s.\n", index, dashboard.DisplayName(args[0]))
		return nil
	},
}

var notebookExportCmd = &cobra.Command{
	Use:   "export [lang]",
	Short: "Export notebooks as YAML or JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		scope := ""
		if len(args) == 1 {
			scope = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		return a.notebooks.Export(cmd.Context(), cmd.OutOrStdout(), scope, format)
	},
}

var notebookSkillsCmd = &cobra.Command{
	Use:   "skills [lang]",
	Short: "Show average confidence per concept",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		scope := ""
		if len(args) == 1 {
			scope = args[0]
		}
		agg, err := a.notebooks.AggregateSkills(cmd.Context(), scope)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(agg) == 0 {
			fmt.Fprintln(out, "No skill analyses yet.")
			return nil
		}
		for _, s := range agg {
			fmt.Fprintf(out, "%-28s %3d%%  (%d)\n", s.Concept, int(s.Mean*100+0.5), s.Count)
		}
		return nil
	},
}

func init() {
	notebookExportCmd.Flags().StringP("format", "f", "yaml", "yaml or json")

	notebookCmd.AddCommand(notebookListCmd, notebookShowCmd, notebookDeleteCmd, notebookExportCmd, notebookSkillsCmd)
}
