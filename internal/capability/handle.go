package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/lingopad/internal/llm"
)

// Availability is a capability's readiness as reported by the engine.
type Availability int

const (
	Available Availability = iota
	Provisioning
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Provisioning:
		return "provisioning"
	default:
		return "unavailable"
	}
}

// MarshalText renders the availability name in reports.
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Availability) UnmarshalText(b []byte) error {
	switch string(b) {
	case "available":
		*a = Available
	case "provisioning":
		*a = Provisioning
	case "unavailable":
		*a = Unavailable
	default:
		return fmt.Errorf("unknown availability %q", b)
	}
	return nil
}

// Handle is one capability as resolved at startup. The adapter asks it
// before every call instead of probing the engine ad hoc.
type Handle interface {
	Kind() Kind
	Availability(ctx context.Context) (Availability, error)

	// Provision blocks until the capability's model is ready.
	Provision(ctx context.Context, progress ProgressFunc) error
}

// Handles maps each capability to its handle.
type Handles map[Kind]Handle

var errDisabled = errors.New("disabled by configuration")

// Resolve builds a handle for every capability on top of p. Capabilities
// named in disabled resolve to a handle that is always Unavailable.
func Resolve(p llm.Provider, disabled []string) Handles {
	off := make(map[Kind]bool, len(disabled))
	for _, d := range disabled {
		off[Kind(strings.ToLower(strings.TrimSpace(d)))] = true
	}

	prov, _ := llm.AsProvisioner(p)

	handles := make(Handles, len(Kinds))
	for _, k := range Kinds {
		if off[k] {
			handles[k] = staticHandle{kind: k, state: Unavailable, err: errDisabled}
			continue
		}
		handles[k] = &providerHandle{kind: k, prov: prov}
	}
	return handles
}

// providerHandle reports the state of the provider's model. Providers with
// nothing to provision are always Available.
type providerHandle struct {
	kind Kind
	prov llm.Provisioner
}

func (h *providerHandle) Kind() Kind { return h.kind }

func (h *providerHandle) Availability(ctx context.Context) (Availability, error) {
	if h.prov == nil {
		return Available, nil
	}
	state, err := h.prov.ModelState(ctx)
	if err != nil {
		return Unavailable, err
	}
	switch state {
	case llm.ModelReady:
		return Available, nil
	case llm.ModelMissing, llm.ModelPulling:
		return Provisioning, nil
	default:
		return Unavailable, nil
	}
}

func (h *providerHandle) Provision(ctx context.Context, progress ProgressFunc) error {
	if h.prov == nil {
		return nil
	}
	return h.prov.Pull(ctx, func(completed, total int64) {
		if progress == nil || total <= 0 {
			return
		}
		progress(Progress{Capability: h.kind, Loaded: float64(completed) / float64(total)})
	})
}

// staticHandle always reports the same state.
type staticHandle struct {
	kind  Kind
	state Availability
	err   error
}

func (h staticHandle) Kind() Kind { return h.kind }

func (h staticHandle) Availability(context.Context) (Availability, error) {
	return h.state, h.err
}

func (h staticHandle) Provision(context.Context, ProgressFunc) error {
	if h.state == Available {
		return nil
	}
	if h.err != nil {
		return h.err
	}
	return errors.New("capability cannot be provisioned")
}

// StaticHandle returns a handle pinned to state. Tests and callers that
// manage availability themselves use it.
func StaticHandle(k Kind, state Availability) Handle {
	return staticHandle{kind: k, state: state}
}

// Status is one line of an availability report.
type Status struct {
	Capability   Kind         `json:"capability"`
	Availability Availability `json:"availability"`
	Detail       string       `json:"detail,omitempty"`
}

// Report checks every handle once, in Kinds order.
func (hs Handles) Report(ctx context.Context) []Status {
	out := make([]Status, 0, len(Kinds))
	for _, k := range Kinds {
		h, ok := hs[k]
		if !ok {
			out = append(out, Status{Capability: k, Availability: Unavailable, Detail: "not configured"})
			continue
		}
		a, err := h.Availability(ctx)
		st := Status{Capability: k, Availability: a}
		if err != nil {
			st.Detail = err.Error()
		}
		out = append(out, st)
	}
	return out
}
