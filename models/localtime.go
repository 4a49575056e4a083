package models

import (
	"fmt"
	"strings"
	"time"
)

// The API serializes timestamps as zone-less local date-times. The booking
// form may send minute precision, so both layouts are accepted on decode.
const (
	localTimeLayout       = "2006-01-02T15:04:05"
	localTimeLayoutMinute = "2006-01-02T15:04"
)

// LocalTime wraps time.Time with the API's zone-less JSON representation.
type LocalTime struct {
	time.Time
}

// NewLocalTime builds a LocalTime from a time.Time.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: t}
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	if lt.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + lt.Format(localTimeLayout) + `"`), nil
}

func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		lt.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{localTimeLayout, localTimeLayoutMinute, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			lt.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid local time %q", raw)
}
