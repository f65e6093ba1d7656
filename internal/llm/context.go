package llm

import "context"

type contextKey string

const (
	purposeKey contextKey = "llm_purpose"
	flowKey    contextKey = "llm_flow"
)

// WithPurpose attaches a purpose label (e.g. "translate", "quiz-gen") to the
// context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithFlowID tags every request made on behalf of one user action, so the
// detect, translate and rewrite calls of a single translate can be grouped.
func WithFlowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, flowKey, id)
}

// FlowIDFrom returns the flow id, or "" when none was attached.
func FlowIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(flowKey).(string)
	return v
}
