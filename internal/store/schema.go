package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	kvTableName       = "kv_entries"
	llmEventTableName = "llm_request_events"
)

var (
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	kvTable = &schema.Table{
		Name:       kvTableName,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "flow_id", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventTable = &schema.Table{
		Name:       llmEventTableName,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventColumns[4]}},
			{Name: "llmrequestevent_flow_id", Columns: []*schema.Column{llmEventColumns[5]}},
		},
	}

	tables = []*schema.Table{kvTable, llmEventTable}
)

// migrate creates or upgrades the tables in place.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, tables...)
}
