package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/store"
)

// LoggingProvider is a decorator that records every model request as an
// event and emits a structured log line for it.
type LoggingProvider struct {
	inner  Provider
	events store.EventRepo
	log    *zap.Logger
}

// WithLogging wraps a Provider with event logging. Either sink may be nil.
func WithLogging(p Provider, events store.EventRepo, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, events: events, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)
	data := store.LLMRequestEventData{
		Provider:    providerName(l.inner),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		FlowID:      FlowIDFrom(ctx),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	fields := []zap.Field{
		zap.String("purpose", purpose),
		zap.String("model", data.Model),
		zap.Duration("latency", latency),
		zap.Int("input_tokens", data.InputTokens),
		zap.Int("output_tokens", data.OutputTokens),
	}
	if data.FlowID != "" {
		fields = append(fields, zap.String("flow_id", data.FlowID))
	}
	if err != nil {
		l.log.Warn("model request failed", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("model request", fields...)
	}

	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn("failed to record model request event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) Unwrap() Provider { return l.inner }

// providerName reports the vendor behind p, looking through decorators.
func providerName(p Provider) string {
	for {
		switch v := p.(type) {
		case interface{ Vendor() string }:
			return v.Vendor()
		case interface{ Unwrap() Provider }:
			p = v.Unwrap()
		default:
			return fmt.Sprintf("%T", p)
		}
	}
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	} else if req.JSON {
		b.WriteString("[json mode]\n")
	}

	return b.String()
}
