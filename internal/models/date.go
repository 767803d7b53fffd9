package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a timezone-naive calendar day. It crosses the wire in
// the fixed YYYY-MM-DD form and is reconstructed from its three integer
// components in the local timezone, never through a timezone-sensitive
// timestamp parse, so a date never shifts by a day near midnight.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate builds a CalendarDate from its components.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// ParseCalendarDate parses the strict YYYY-MM-DD wire form.
func ParseCalendarDate(raw string) (CalendarDate, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	return CalendarDate{Year: year, Month: time.Month(month), Day: day}, nil
}

// String renders the fixed wire form.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time materialises the date at local midnight.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// IsZero reports whether the date has not been set.
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes the quoted wire form.
func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "null" || raw == "" {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseCalendarDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so the date is stored as its wire form.
func (d CalendarDate) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts DATE columns surfaced as time.Time, string or []byte.
// Only the calendar components are read; any time-of-day is discarded.
func (d *CalendarDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = CalendarDate{}
		return nil
	case time.Time:
		*d = CalendarDate{Year: v.Year(), Month: v.Month(), Day: v.Day()}
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		if len(trimmed) > 10 {
			trimmed = trimmed[:10]
		}
		parsed, err := ParseCalendarDate(trimmed)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into CalendarDate", src)
}
