// Package dashboard renders notebooks and aggregated skill confidence for
// the terminal.
package dashboard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/ui/components"
	"github.com/abhisek/lingopad/internal/ui/theme"
)

var displayNames = map[string]string{
	"en": "English",
	"es": "Español",
	"ja": "Japanese",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ko": "Korean",
}

// DisplayName returns a human name for a language code, or the code
// upper-cased when it is not known.
func DisplayName(code string) string {
	if name, ok := displayNames[strings.ToLower(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// Options control rendering.
type Options struct {
	Width int

	// Scope limits the view to one language; "" or "all" shows every one.
	Scope string
}

const defaultWidth = 72

// Render draws one card per language with its entry count and skill
// bars, followed by the cross-language aggregate.
func Render(nb notebook.Notebooks, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	var langs []string
	if notebook.IsAllScope(opts.Scope) {
		langs = nb.Languages()
	} else {
		langs = []string{strings.ToLower(strings.TrimSpace(opts.Scope))}
	}

	if len(nb) == 0 || (len(langs) == 1 && len(nb[langs[0]]) == 0) {
		return theme.Hint.Render("No notebook entries yet. Translate something and save it to start.") + "\n"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Learning dashboard"))
	b.WriteString("\n\n")

	for _, lang := range langs {
		b.WriteString(languageCard(lang, nb[lang], notebook.Aggregate(nb, lang), width))
		b.WriteString("\n")
	}

	if len(langs) > 1 {
		b.WriteString(theme.Subtitle.Render("All languages"))
		b.WriteString("\n")
		b.WriteString(skillBars(notebook.Aggregate(nb, "all"), width-4))
	}
	return b.String()
}

func languageCard(lang string, entries []notebook.Entry, skills notebook.Skills, width int) string {
	var b strings.Builder
	b.WriteString(theme.Language.Render(DisplayName(lang)))
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("  (%s) · %s", lang, plural(len(entries), "entry", "entries"))))
	b.WriteString("\n")

	if len(skills) == 0 {
		b.WriteString(theme.Hint.Render("No skill analysis yet."))
	} else {
		b.WriteString(strings.TrimRight(skillBars(skills, width-6), "\n"))
	}
	return theme.Card.Width(width).Render(b.String())
}

func skillBars(skills notebook.Skills, width int) string {
	labelWidth := 0
	for _, s := range skills {
		labelWidth = max(labelWidth, lipgloss.Width(s.Concept))
	}
	labelWidth = min(labelWidth, width/2)

	var b strings.Builder
	for _, s := range skills {
		fill := theme.Confidence(s.Mean)
		bar := components.ProgressBar{
			Label:       truncate(s.Concept, labelWidth),
			LabelWidth:  labelWidth,
			Percent:     s.Mean,
			ShowPercent: true,
			Width:       width,
			Fill:        &fill,
		}
		b.WriteString(bar.View())
		b.WriteString("\n")
	}
	return b.String()
}

// RenderEntries lists one language's entries with their index, as used by
// delete.
func RenderEntries(lang string, entries []notebook.Entry) string {
	var b strings.Builder
	b.WriteString(theme.Language.Render(DisplayName(lang)))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(theme.Hint.Render("No entries."))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range entries {
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("[%d] %s", i, e.Date.Local().Format("2006-01-02 15:04"))))
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(e.Text))
		b.WriteString("\n")
		b.WriteString(quizSummary(e))

		if e.Analysis != nil {
			for _, r := range e.Analysis.LearnedSkills {
				b.WriteString(theme.Hint.Render(fmt.Sprintf("  %s %d%%", r.Concept, int(r.Confidence*100+0.5))))
				b.WriteString("\n")
			}
			if len(e.Analysis.SuggestedNext) > 0 {
				b.WriteString(theme.Hint.Render("  next: " + strings.Join(e.Analysis.SuggestedNext, ", ")))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func quizSummary(e notebook.Entry) string {
	switch {
	case len(e.Quiz) > 0:
		mcq, fill := e.Quiz.Counts()
		var b strings.Builder
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("  quiz: %d multiple choice, %d fill in", mcq, fill)))
		b.WriteString("\n")
		for _, it := range e.Quiz {
			b.WriteString(theme.Subtitle.Render(fmt.Sprintf("    %s -> %s", it.Question, answerLabel(it))))
			b.WriteString("\n")
		}
		return b.String()
	case e.QuizHTML != "":
		return theme.Subtitle.Render("  quiz: (answers unavailable)") + "\n"
	default:
		return ""
	}
}

func answerLabel(it quiz.Item) string {
	if i, ok := it.CorrectOption(); ok {
		return quiz.Letter(i) + ". " + strings.TrimSpace(strings.TrimPrefix(it.Options[i], quiz.Letter(i)+"."))
	}
	return it.Answer
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
