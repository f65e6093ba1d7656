package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingopad/internal/capability"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Report which capabilities the configured model can serve",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider: %s\n\n", a.cfg.LLM.Provider)

		report := a.handles.Report(ctx)
		for _, st := range report {
			line := fmt.Sprintf("%-10s %s", st.Capability, st.Availability)
			if st.Detail != "" {
				line += "  (" + st.Detail + ")"
			}
			fmt.Fprintln(out, line)
		}

		provision, _ := cmd.Flags().GetBool("provision")
		if !provision {
			return nil
		}

		// Capabilities share one model, so one download serves them all.
		for _, st := range report {
			if st.Availability != capability.Provisioning {
				continue
			}
			fmt.Fprintln(out)
			if err := a.handles[st.Capability].Provision(ctx, progressPrinter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("provision %s: %w", st.Capability, err)
			}
			fmt.Fprintln(out, "Model ready.")
			return nil
		}
		fmt.Fprintln(out, "\nNothing to download.")
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().Bool("provision", false, "download the model when a capability is waiting for it")
}
