package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// completion is a hosted model's reply reduced to what the app keeps.
type completion struct {
	text      string
	model     string
	usage     Usage
	truncated bool
}

// settle turns a completion into a Response. Structured requests must come
// back as complete JSON; a truncated free-text reply is still returned.
func settle(req Request, c completion) (*Response, error) {
	text := strings.TrimSpace(thinkBlock.ReplaceAllString(c.text, ""))
	structured := req.Schema != nil || req.JSON
	if structured {
		text = unfence(text)
		if c.truncated {
			return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
		}
	}
	if req.Schema != nil {
		if err := validateResponse(req.Schema, json.RawMessage(text)); err != nil {
			return nil, err
		}
	}

	usage := c.usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	stop := "end"
	if c.truncated {
		stop = "max_tokens"
	}
	return &Response{
		Content:    json.RawMessage(text),
		Usage:      usage,
		Model:      c.model,
		StopReason: stop,
	}, nil
}

// unfence strips a markdown code fence wrapped around the whole reply.
func unfence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	body := strings.TrimSuffix(text, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return text
	}
	return strings.TrimSpace(body[nl+1:])
}

// classifyStatus maps a hosted API's HTTP status onto the package errors.
// A zero status means the request never got an answer.
func classifyStatus(vendor string, status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return &ErrRejected{Vendor: vendor, Status: status, Err: err}
	default:
		return &ErrProviderUnavailable{Err: fmt.Errorf("%s: %w", vendor, err)}
	}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// hostedModel resolves a configured model name. Aliases map to dated IDs;
// an empty name selects fallback.
func hostedModel(name, fallback string, aliases map[string]string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// jsonInstruction is appended to the system prompt for engines without a
// native JSON mode.
const jsonInstruction = "Respond with a single JSON value and nothing else."

func withJSONInstruction(system string) string {
	if system == "" {
		return jsonInstruction
	}
	return system + "\n\n" + jsonInstruction
}
