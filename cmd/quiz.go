package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/abhisek/lingopad/internal/dashboard"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/quizui"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/study"
)

var quizCmd = &cobra.Command{
	Use:   "quiz [text...]",
	Short: "Generate a quiz from text and take it in the terminal",
	Long: `Generate a short quiz (two multiple-choice questions and one fill-in) from
text, take it in a full-screen terminal UI, and get a skill analysis of your
answers. With --save the text, quiz and analysis are filed in that
language's notebook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		text, err := inputText(ctx, a, args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		target := flagOr(cmd, "to", a.cfg.Notebook.TargetLanguage)
		saveLang, _ := cmd.Flags().GetString("save")
		out := cmd.OutOrStdout()

		q, err := a.quizzes.Generate(ctx, text, target)
		if err != nil {
			return err
		}

		if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(q)
		}

		title := "Quiz"
		if saveLang != "" {
			title = dashboard.DisplayName(saveLang) + " quiz"
		}
		responses, err := quizui.Run(ctx, q, title)
		if errors.Is(err, quizui.ErrAborted) {
			fmt.Fprintln(out, "Quiz aborted; nothing saved.")
			return nil
		}
		if err != nil {
			return err
		}

		correct, total := quiz.Score(responses)
		fmt.Fprintf(out, "Score: %d/%d\n", correct, total)

		if saveLang != "" {
			res, err := a.flow.Save(ctx, study.SaveRequest{
				Language:  saveLang,
				Text:      text,
				Quiz:      q,
				Responses: responses,
			})
			if err != nil {
				return err
			}
			if res.AnalysisErr != nil {
				fmt.Fprintf(out, "Skill analysis failed: %v\n", res.AnalysisErr)
			}
			printReport(out, res.Entry.Analysis)
			fmt.Fprintf(out, "Saved to the %s notebook.\n", dashboard.DisplayName(saveLang))
			return nil
		}

		if skip, _ := cmd.Flags().GetBool("no-analysis"); skip {
			return nil
		}
		report, err := a.flow.Analyze(ctx, responses)
		if err != nil {
			return err
		}
		printReport(out, report)
		return nil
	},
}

func printReport(w io.Writer, r *skills.Report) {
	if r == nil {
		return
	}
	if len(r.LearnedSkills) > 0 {
		fmt.Fprintln(w, "Skills:")
		for _, s := range r.LearnedSkills {
			fmt.Fprintf(w, "  %-24s %3d%%\n", s.Concept, int(s.Confidence*100+0.5))
		}
	}
	if len(r.SuggestedNext) > 0 {
		fmt.Fprintln(w, "Suggested next:")
		for _, s := range r.SuggestedNext {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

func init() {
	f := quizCmd.Flags()
	f.String("to", "", "language the quiz is written in (default from notebook.target_language)")
	f.String("save", "", "file the text, quiz and analysis in this language's notebook")
	f.Bool("print", false, "print the generated quiz as YAML instead of running it")
	f.Bool("no-analysis", false, "skip skill analysis when not saving")
}
