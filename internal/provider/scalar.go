package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scalar holds a JSON scalar in its textual form.
// `"12.5"`, `12.5` and `null` all decode; null and absent leave Valid false.
// Objects and arrays decode too, keeping their raw text, so they fail later
// numeric parsing for the one record instead of the whole payload.
type Scalar struct {
	Text  string
	Valid bool
}

// S builds a present Scalar, mostly for tests and fixtures.
func S(text string) Scalar { return Scalar{Text: text, Valid: true} }

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("decoding string scalar: %w", err)
		}
		*s = Scalar{Text: strings.TrimSpace(str), Valid: true}
	default:
		// numbers and booleans keep their literal text
		*s = Scalar{Text: string(b), Valid: true}
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Text)
}

func (s Scalar) String() string {
	if !s.Valid {
		return "<null>"
	}
	return s.Text
}
