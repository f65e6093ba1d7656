package capability

import "fmt"

// UnavailableError means the engine cannot serve the capability right now:
// it is disabled, not installed, unreachable, or its model is still being
// provisioned and the adapter was told not to wait.
type UnavailableError struct {
	Capability Kind

	// Provisioning is true when a model download was pending. Retrying
	// later is expected to succeed.
	Provisioning bool

	Err error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s unavailable", e.Capability)
	if e.Provisioning {
		msg = fmt.Sprintf("%s unavailable: model is being provisioned", e.Capability)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Error is an execution fault in a capability call: the engine failed or
// returned something unusable.
type Error struct {
	Capability Kind
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Capability, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
