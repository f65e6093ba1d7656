// Package quiz builds comprehension quizzes from text and grades answers.
package quiz

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the question type.
type Kind string

const (
	MultipleChoice Kind = "mcq"
	FillBlank      Kind = "fill"
)

// Item is one quiz question. For MultipleChoice, Options holds four choices
// and Answer names one of them by letter or by text.
type Item struct {
	Kind     Kind     `json:"type" yaml:"type"`
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
	Answer   string   `json:"answer" yaml:"answer"`
}

// Quiz is an ordered list of items.
type Quiz []Item

// Letter returns the choice letter for option index i: 0 -> "A".
func Letter(i int) string {
	return string(rune('A' + i))
}

// CorrectOption resolves a multiple-choice answer to an option index.
// Answers may be a letter ("b.", "B"), the option text, or both ("B. casa").
// Comparison ignores case and punctuation. Option text wins over a letter
// reading, so an answer key of "a" names the option "a" when one exists.
func (it Item) CorrectOption() (int, bool) {
	if i, found, ok := matchText(it.Options, it.Answer); found {
		return i, ok
	}
	return matchLetter(it.Options, it.Answer)
}

// chosenOption resolves a learner's response. Responses come from a picker
// that submits letters, so a single letter is read as a letter first.
func chosenOption(options []string, given string) (int, bool) {
	if i, ok := matchLetter(options, given); ok {
		return i, true
	}
	i, _, ok := matchText(options, given)
	return i, ok
}

// Counts returns the number of multiple-choice and fill-in items.
func (q Quiz) Counts() (mcq, fill int) {
	for _, it := range q {
		switch it.Kind {
		case MultipleChoice:
			mcq++
		case FillBlank:
			fill++
		}
	}
	return mcq, fill
}

func matchLetter(options []string, answer string) (int, bool) {
	if letter := normalize(answer); len(letter) == 1 {
		if i := int(letter[0] - 'a'); i >= 0 && i < len(options) {
			return i, true
		}
	}
	return -1, false
}

// matchText looks answer up among the option texts. found reports whether
// any option matched; ok is false when more than one did.
func matchText(options []string, answer string) (index int, found, ok bool) {
	want := normalize(answer)
	if want == "" {
		return -1, false, false
	}

	match := -1
	for i, opt := range options {
		text := normalize(opt)
		stripped := normalize(stripLetterPrefix(opt, i))
		prefixed := normalize(Letter(i)) + " " + stripped
		if want == text || want == stripped || want == prefixed {
			if match >= 0 && match != i {
				return -1, true, false
			}
			match = i
		}
	}
	return match, match >= 0, match >= 0
}

// stripLetterPrefix removes a leading "A." or "A)" matching position i.
func stripLetterPrefix(opt string, i int) string {
	s := strings.TrimSpace(opt)
	l := Letter(i)
	if len(s) >= 2 && strings.EqualFold(s[:1], l) && (s[1] == '.' || s[1] == ')' || s[1] == ':') {
		return s[2:]
	}
	return s
}

// normalize lowercases s, drops punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Response is one answered question.
type Response struct {
	Item     Item   `json:"item" yaml:"item"`
	Given    string `json:"given" yaml:"given"`
	Correct  bool   `json:"correct" yaml:"correct"`
	Feedback string `json:"feedback" yaml:"feedback"`
}

// Grade checks given against the item. Multiple-choice answers may be a
// letter or option text; fill-in answers match case-insensitively after
// trimming.
func Grade(it Item, given string) Response {
	r := Response{Item: it, Given: given}

	switch it.Kind {
	case MultipleChoice:
		want, ok := it.CorrectOption()
		if !ok {
			r.Feedback = "Answer key unavailable."
			return r
		}
		label := fmt.Sprintf("%s. %s", Letter(want), stripLetterPrefix(it.Options[want], want))
		if got, ok := chosenOption(it.Options, given); ok && got == want {
			r.Correct = true
			r.Feedback = fmt.Sprintf("Correct! (%s)", label)
		} else {
			r.Feedback = "Incorrect. Correct answer: " + label
		}
	default:
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(it.Answer)) {
			r.Correct = true
			r.Feedback = "Correct!"
		} else {
			r.Feedback = "Incorrect. Correct answer: " + strings.TrimSpace(it.Answer)
		}
	}
	return r
}

// Score counts correct responses.
func Score(rs []Response) (correct, total int) {
	for _, r := range rs {
		if r.Correct {
			correct++
		}
	}
	return correct, len(rs)
}
