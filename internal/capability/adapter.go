package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/llm"
)

var (
	errNoCandidates = errors.New("detector returned no candidates")
	errNoHandle     = errors.New("no handle configured")
)

// Config configures an Adapter.
type Config struct {
	// WaitForProvisioning makes Invoke block on a pending model download.
	// When false such calls fail fast with a provisioning UnavailableError.
	WaitForProvisioning bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Registerer receives the capability metrics. Nil keeps them private.
	Registerer prometheus.Registerer
}

// Adapter is the single entry point for capability calls.
type Adapter struct {
	svc     Service
	handles Handles
	wait    bool
	log     *zap.Logger
	metrics *metrics
}

// NewAdapter creates an Adapter over svc, consulting handles before each
// call.
func NewAdapter(svc Service, handles Handles, cfg Config) (*Adapter, error) {
	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register capability metrics: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		svc:     svc,
		handles: handles,
		wait:    cfg.WaitForProvisioning,
		log:     log,
		metrics: m,
	}, nil
}

// Handles returns the handles the adapter was built with.
func (a *Adapter) Handles() Handles { return a.handles }

// Invoke runs one capability with its defaults applied. Failures are
// *UnavailableError or *Error.
func (a *Adapter) Invoke(ctx context.Context, req Request) (res Result, err error) {
	k := req.Capability
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		a.metrics.invocations.WithLabelValues(string(k), outcome(err)).Inc()
		a.metrics.duration.WithLabelValues(string(k)).Observe(elapsed.Seconds())
		a.log.Debug("capability invoked",
			zap.String("capability", string(k)),
			zap.Int("input_len", len(req.Input)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}()

	if _, perr := ParseKind(string(k)); perr != nil {
		return nil, &Error{Capability: k, Err: perr}
	}
	if llm.PurposeFrom(ctx) == "unknown" {
		ctx = llm.WithPurpose(ctx, string(k))
	}
	if err := a.ready(ctx, k, req.Progress); err != nil {
		return nil, err
	}

	opts := MergeOptions(k, req.Options)

	switch k {
	case Detect:
		d, err := a.detect(ctx, req.Input)
		if err != nil {
			return nil, err
		}
		return d, nil

	case Translate:
		source := opts.SourceLanguage
		if source == "" {
			if err := a.ready(ctx, Detect, req.Progress); err != nil {
				return nil, err
			}
			d, err := a.detect(ctx, req.Input)
			if err != nil {
				return nil, err
			}
			source = d.Language
		}
		out, err := a.svc.Translate(ctx, req.Input, source, opts.TargetLanguage)
		return a.text(Translate, out, err)

	case Summarize:
		out, err := a.svc.Summarize(ctx, req.Input, opts)
		return a.text(Summarize, out, err)

	case Rewrite:
		out, err := a.svc.Rewrite(ctx, req.Input, opts)
		return a.text(Rewrite, out, err)

	case Write:
		out, err := a.svc.Write(ctx, req.Input, opts)
		return a.text(Write, out, err)

	default: // Prompt
		out, err := a.svc.Prompt(ctx, req.Input, opts)
		if err != nil {
			return nil, wrap(Prompt, err)
		}
		if opts.Format == "json" {
			if j, ok := sniffJSON(out); ok {
				return j, nil
			}
			a.log.Debug("prompt response is not JSON, returning text")
		}
		return Text(out), nil
	}
}

// ready consults k's handle, waiting out provisioning when configured to.
func (a *Adapter) ready(ctx context.Context, k Kind, progress ProgressFunc) error {
	h, ok := a.handles[k]
	if !ok {
		return &UnavailableError{Capability: k, Err: errNoHandle}
	}

	state, err := h.Availability(ctx)
	switch state {
	case Available:
		return nil
	case Provisioning:
		if !a.wait {
			return &UnavailableError{Capability: k, Provisioning: true, Err: err}
		}
		a.log.Info("waiting for model provisioning", zap.String("capability", string(k)))
		if err := h.Provision(ctx, progress); err != nil {
			return &UnavailableError{Capability: k, Provisioning: true, Err: err}
		}
		return nil
	default:
		return &UnavailableError{Capability: k, Err: err}
	}
}

// detect returns the highest-confidence candidate.
func (a *Adapter) detect(ctx context.Context, text string) (Detection, error) {
	candidates, err := a.svc.DetectLanguage(ctx, text)
	if err != nil {
		return Detection{}, wrap(Detect, err)
	}

	best, found := Detection{}, false
	for _, c := range candidates {
		if c.Language == "" {
			continue
		}
		if !found || c.Confidence > best.Confidence {
			best, found = c, true
		}
	}
	if !found {
		return Detection{}, &Error{Capability: Detect, Err: errNoCandidates}
	}
	return best, nil
}

func (a *Adapter) text(k Kind, out string, err error) (Result, error) {
	if err != nil {
		return nil, wrap(k, err)
	}
	return Text(out), nil
}

// wrap classifies an engine error: unreachable engines and missing models
// are unavailability, everything else is an execution fault.
func wrap(k Kind, err error) error {
	if llm.IsUnavailable(err) {
		return &UnavailableError{Capability: k, Err: err}
	}
	return &Error{Capability: k, Err: err}
}

// sniffJSON parses the span from the first '{' to the last '}'.
func sniffJSON(out string) (JSON, bool) {
	span, ok := llm.ExtractObject(out)
	if !ok {
		return JSON{}, false
	}
	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return JSON{}, false
	}
	return JSON{Raw: json.RawMessage(span), Value: v}, true
}
