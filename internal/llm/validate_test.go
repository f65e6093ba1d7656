package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func detectionTestSchema() *Schema {
	return &Schema{
		Name:        "test-detection",
		Description: "Language candidates",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"language":   map[string]any{"type": "string", "minLength": 2},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"script":     map[string]any{"type": "string", "enum": []any{"latin", "cjk", "other"}},
			},
			"required": []any{"language", "confidence"},
		},
	}
}

func TestValidateJSON_Valid(t *testing.T) {
	raw := json.RawMessage(`{"language":"es","confidence":0.93,"script":"latin"}`)
	if err := ValidateJSON(detectionTestSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"language":"ja","confidence":1}`)
	if err := ValidateJSON(detectionTestSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"language":"es"}`},
		{"wrong type", `{"language":"es","confidence":"high"}`},
		{"out of range", `{"language":"es","confidence":1.4}`},
		{"bad enum", `{"language":"es","confidence":0.5,"script":"runic"}`},
		{"malformed", `{not json}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(detectionTestSchema(), json.RawMessage(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
		})
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	if err := ValidateJSON(nil, []byte(`anything at all`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateJSON_ArrayOfObjects(t *testing.T) {
	schema := &Schema{
		Name: "test-items",
		Definition: map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
				},
				"required": []any{"question"},
			},
		},
	}

	if err := ValidateJSON(schema, []byte(`[{"question":"¿Qué?"},{"question":"¿Dónde?"}]`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := ValidateJSON(schema, []byte(`[{"question":"ok"},{"answer":"no question"}]`)); err == nil {
		t.Fatal("expected error for item without question")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		open   byte
		close  byte
		want   string
		wantOK bool
	}{
		{"bare array", `[1,2]`, '[', ']', `[1,2]`, true},
		{"prose wrapped", `Sure! [ {"a":1}, {"b":[2]} ] Hope that helps`, '[', ']', `[ {"a":1}, {"b":[2]} ]`, true},
		{"fenced object", "```json\n{\"x\":{\"y\":1}}\n```", '{', '}', `{"x":{"y":1}}`, true},
		{"think block stripped", `<think>maybe {"no":1}</think> {"yes":2}`, '{', '}', `{"yes":2}`, true},
		{"missing close", `here you go: [ {"a":1}`, '[', ']', ``, false},
		{"missing open", `nothing ] here`, '[', ']', ``, false},
		{"reversed", `] then [`, '[', ']', ``, false},
		{"empty", ``, '{', '}', ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.raw, tt.open, tt.close)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
