package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/dispatch"
)

var actionHelp = map[dispatch.Action]string{
	dispatch.Translate: "Translate text, detecting the source language unless --from is set",
	dispatch.Detect:    "Detect the language of text",
	dispatch.Summarize: "Summarize text as key points",
	dispatch.Rewrite:   "Rewrite text in a more formal tone",
	dispatch.Write:     "Write new text from a prompt",
	dispatch.Prompt:    "Send text to the model as a free-form prompt",
}

// actionCommands builds one subcommand per text action.
func actionCommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, a := range dispatch.Actions {
		help, ok := actionHelp[a]
		if !ok {
			continue
		}
		action := a
		c := &cobra.Command{
			Use:   string(action) + " [text...]",
			Short: help,
			Long: help + `.

Text is taken from the arguments, then from stdin, then from the last saved
selection (see "lingopad select").`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, action, args)
			},
		}
		f := c.Flags()
		f.String("to", "", "target language code (default from notebook.target_language)")
		f.Bool("json", false, "print the full result as JSON")
		switch action {
		case dispatch.Translate:
			f.String("from", "", "source language code; skips detection")
			f.String("mode", "", "as-is, simplify or enhance (default from notebook.mode)")
		case dispatch.Prompt:
			f.String("format", "", `"json" asks for structured output`)
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func runAction(cmd *cobra.Command, action dispatch.Action, args []string) error {
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

	opts := dispatch.Options{
		TargetLanguage: flagOr(cmd, "to", a.cfg.Notebook.TargetLanguage),
		Mode:           flagOr(cmd, "mode", a.cfg.Notebook.Mode),
		SourceLanguage: flagOr(cmd, "from", ""),
		Format:         flagOr(cmd, "format", ""),
		Progress:       progressPrinter(cmd.ErrOrStderr()),
	}

	res, err := a.dispatcher.Dispatch(ctx, string(action), text, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, res.String())
	return err
}

// flagOr returns the named flag's value when the command has it and it is
// non-empty.
func flagOr(cmd *cobra.Command, name, def string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		if v := f.Value.String(); v != "" {
			return v
		}
	}
	return def
}

// progressPrinter reports model downloads on w, one line per whole percent.
func progressPrinter(w io.Writer) capability.ProgressFunc {
	var mu sync.Mutex
	last := -1
	return func(p capability.Progress) {
		mu.Lock()
		defer mu.Unlock()
		pct := int(p.Loaded * 100)
		if pct == last {
			return
		}
		last = pct
		end := "\r"
		if pct >= 100 {
			end = "\n"
		}
		fmt.Fprintf(w, "Downloading model for %s: %3d%%%s", p.Capability, pct, end)
	}
}
