package capability

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of a capability call: a Detection, a Text or a JSON.
type Result interface {
	fmt.Stringer
	result()
}

// Detection is the single best language guess for a text.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Text is plain model output.
type Text string

// JSON is structured output parsed from a prompt response.
type JSON struct {
	Raw   json.RawMessage
	Value any
}

func (Detection) result() {}
func (Text) result()      {}
func (JSON) result()      {}

func (d Detection) String() string {
	return fmt.Sprintf("%s (%.0f%%)", d.Language, d.Confidence*100)
}

func (t Text) String() string { return string(t) }

func (j JSON) String() string { return string(j.Raw) }

// MarshalJSON emits the parsed value rather than the wrapper.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j.Raw) == 0 {
		return []byte("null"), nil
	}
	return j.Raw, nil
}
