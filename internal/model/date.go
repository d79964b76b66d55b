package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order when decoding. The backend emits naive ISO
// timestamps; RFC 3339 and plain dates also occur.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

const wireLayout = "2006-01-02T15:04:05"

// Date is a timestamp that tolerates the formats the backend produces.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

// ParseDate parses s with any accepted layout.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// UnmarshalJSON accepts a JSON string in any accepted layout, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the naive ISO form the backend uses.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(wireLayout))
}

// Short renders the date as M/D/YYYY.
func (d Date) Short() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("1/2/2006")
}
