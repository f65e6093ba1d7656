package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds schemas already compiled, keyed by their encoded
// definition so that two schemas sharing a name never collide.
var compiled sync.Map // string -> *jsonschema.Schema

// ValidateJSON checks raw against schema. A nil schema accepts anything.
// Every failure, including a schema that does not compile, is reported as
// *ErrInvalidResponse carrying raw.
func ValidateJSON(schema *Schema, raw []byte) error {
	if schema == nil {
		return nil
	}
	invalid := func(format string, args ...any) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, args...)}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid("reply is not JSON: %w", err)
	}
	sch, err := compile(schema)
	if err != nil {
		return invalid("schema %q: %w", schema.Name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return invalid("schema %q: %w", schema.Name, err)
	}
	return nil
}

func validateResponse(schema *Schema, raw json.RawMessage) error {
	return ValidateJSON(schema, raw)
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	key := string(def)
	if s, ok := compiled.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	// The compiler walks decoded JSON values, not typed Go maps and slices.
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	c := jsonschema.NewCompiler()
	loc := "schema://" + schema.Name + ".json"
	if err := c.AddResource(loc, doc); err != nil {
		return nil, err
	}
	s, err := c.Compile(loc)
	if err != nil {
		return nil, err
	}
	compiled.Store(key, s)
	return s, nil
}
