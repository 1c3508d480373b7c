package purchase

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used by drafts.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Timestamp decodes the API's datetime values, which may omit the zone.
// A zero Timestamp encodes as null.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC3339, zone-less ISO datetimes, dates and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("purchase: unrecognised timestamp %q", raw)
}

// MarshalJSON encodes RFC3339 or null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// Date returns the calendar date, empty for a zero Timestamp.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
