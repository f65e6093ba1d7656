package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		flow, _ := cmd.Flags().GetString("flow")
		since, _ := cmd.Flags().GetDuration("since")

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		events, err := a.eventLog()
		if err != nil {
			return err
		}

		opts := store.QueryOpts{Limit: limit, Purpose: purpose, FlowID: flow}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		list, err := events.QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No model requests recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, e := range list {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 14),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		events, err := a.eventLog()
		if err != nil {
			return err
		}

		e, err := events.GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)
		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		if e.FlowID != "" {
			fmt.Fprintf(out, "Flow:      %s\n", e.FlowID)
		}
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Fprintln(out)
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, part.title)
			fmt.Fprintln(out, sep)
			if part.body == "" {
				fmt.Fprintln(out, "(not captured)")
				continue
			}
			fmt.Fprintln(out, part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		events, err := a.eventLog()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		stats, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(stats) == 0 {
			fmt.Fprintln(out, "No model usage recorded yet.")
			return nil
		}

		rule := strings.Repeat("─", 72)
		fmt.Fprintln(out, "Usage by Purpose")
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(out, rule)

		var calls, in, outTok int
		for _, st := range stats {
			fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
				truncate(st.Purpose, 16), st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			calls += st.Calls
			in += st.InputTokens
			outTok += st.OutputTokens
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, outTok, in+outTok)

		byModel, err := events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Estimated Cost (USD)")
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Fprintln(out, rule)

		var total float64
		var unknown []string
		for _, mu := range byModel {
			cost := llm.LookupCost(mu.Provider, mu.Model)
			if cost == nil {
				unknown = append(unknown, mu.Model)
				fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n", truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n", truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}
		fmt.Fprintln(out, rule)
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
		if len(unknown) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	f := llmListCmd.Flags()
	f.IntP("limit", "n", 20, "number of requests to show")
	f.StringP("purpose", "p", "", "filter by purpose (e.g. translate, quiz-gen, skill-analysis)")
	f.String("flow", "", "filter by flow ID")
	f.Duration("since", 0, "only requests newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
