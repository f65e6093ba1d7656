package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// LLMRequestEventData captures a single model request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	FlowID       string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRepo provides append access to model request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// LLMEvent is a stored model request.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// QueryOpts filters event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when set
	FlowID  string // exact match when set
	From    time.Time
	To      time.Time
}

// LLMUsage aggregates requests sharing a purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates requests served by one model.
type ModelUsage struct {
	Provider     string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventLog is the SQLite EventRepo with read access for the CLI.
type EventLog struct {
	db *sql.DB
}

var eventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "flow_id",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (l *EventLog) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(llmEventTableName).
		Columns(eventColumns[1:]...).
		Values(
			time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose, data.FlowID,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns events newest first.
func (l *EventLog) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(eventColumns...).
		From(entsql.Table(llmEventTableName)).
		OrderBy(entsql.Desc("id"))

	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.FlowID != "" {
		sel.Where(entsql.EQ("flow_id", opts.FlowID))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetLLMEvent returns the event with id, or nil if there is none.
func (l *EventLog) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(eventColumns...).
		From(entsql.Table(llmEventTableName)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanEvent(l.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// LLMUsageByPurpose aggregates token usage per purpose, busiest first.
func (l *EventLog) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			"purpose",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
		).
		From(entsql.Table(llmEventTableName)).
		GroupBy("purpose").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		var avg float64
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates token usage per provider and model.
func (l *EventLog) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			"provider",
			"model",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		).
		From(entsql.Table(llmEventTableName)).
		GroupBy("provider", "model").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Provider, &u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*LLMEvent, error) {
	var e LLMEvent
	var createdAt int64
	err := r.Scan(
		&e.ID, &createdAt, &e.Provider, &e.Model, &e.Purpose, &e.FlowID,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	e.Timestamp = time.UnixMilli(createdAt)
	return &e, nil
}
