package models

import (
	"encoding/json"
	"strings"
	"time"
)

var lenientDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02-01-2006",
}

// ParseLenientDate accepts ISO-8601, DD/MM/YYYY and DD-MM-YYYY. Anything it
// cannot parse becomes nil instead of an error.
func ParseLenientDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range lenientDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// LenientDate is a request field whose presence is significant but whose
// invalid values are coerced to absent.
type LenientDate struct {
	Time *time.Time
}

func (d *LenientDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		d.Time = nil
		return nil
	}
	d.Time = ParseLenientDate(s)
	return nil
}

func (d LenientDate) MarshalJSON() ([]byte, error) {
	if d.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}
