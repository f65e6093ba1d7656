package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unavailable: %v", e.Err)
	}
	return "model provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated: max tokens exceeded"
}

// ErrRejected indicates a hosted API refused the request itself: bad
// credentials, an unknown model or a malformed body. Repeating it will not
// help.
type ErrRejected struct {
	Vendor string
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("%s rejected the request (HTTP %d): %v", e.Vendor, e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// ErrModelMissing indicates a local model has not been pulled yet.
var ErrModelMissing = errors.New("model not present on the local server")

// IsUnavailable reports whether err means the provider could not be reached.
func IsUnavailable(err error) bool {
	var unavail *ErrProviderUnavailable
	return errors.As(err, &unavail) || errors.Is(err, ErrModelMissing)
}
