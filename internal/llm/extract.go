package llm

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ExtractJSON returns the span of raw running from the first open delimiter
// to the last close delimiter, inclusive. Models often wrap their JSON in
// prose or code fences; everything outside the span is discarded.
// ok is false when either delimiter is missing or they are out of order.
func ExtractJSON(raw string, open, close byte) (span string, ok bool) {
	cleaned := thinkBlock.ReplaceAllString(raw, "")
	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// ExtractArray is ExtractJSON anchored on '[' and ']'.
func ExtractArray(raw string) (string, bool) { return ExtractJSON(raw, '[', ']') }

// ExtractObject is ExtractJSON anchored on '{' and '}'.
func ExtractObject(raw string) (string, bool) { return ExtractJSON(raw, '{', '}') }
