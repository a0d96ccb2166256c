package kite

import (
	"encoding/json"
	"strings"
	"time"
)

// Time wraps time.Time to decode the assortment of timestamp layouts
// the broker emits across endpoints. Empty strings decode to the zero
// time.
type Time struct {
	time.Time
}

var wireTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return dataError("timestamp is not a string: %s", string(data))
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return dataError("unrecognized timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format("2006-01-02 15:04:05"))
}
