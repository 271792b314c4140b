// Package dateutils provides the calendar date type used throughout the application.
//
// A Date carries no time-of-day and no location. Arithmetic happens on the
// calendar fields directly, so a rule starting on April 1st stays on April 1st
// regardless of the server or client timezone. Conversion to a time.Time only
// happens at the serialization boundary, where dates are pinned to UTC noon.
package dateutils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Common date layout constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	// DateTimeLayoutNoon is the wire format for dates: the calendar day at 12:00 UTC.
	DateTimeLayoutNoon = "2006-01-02T12:00:00.000Z"
)

// Date is a calendar day without time-of-day or timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date from its parts, normalizing overflowing days the way time.Date does.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// FromTime returns the UTC calendar day of t.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// Parse reads a date from "YYYY-MM-DD" or from an ISO-8601 datetime. For
// datetimes only the date part is kept, verbatim, with no timezone conversion.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	datePart := s
	if i := strings.IndexAny(s, "T "); i >= 0 {
		datePart = s[:i]
	}
	t, err := time.Parse(DateLayoutISO, datePart)
	if err != nil {
		return Date{}, fmt.Errorf("unable to parse date: %s", s)
	}
	return FromTime(t), nil
}

// ParseFlexible accepts the ISO forms understood by Parse plus the European
// DD.MM.YYYY layout used on the command line.
func ParseFlexible(s string) (Date, error) {
	if d, err := Parse(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(DateLayoutEuropean, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("unable to parse date: %s", s)
	}
	return FromTime(t), nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns d at 12:00 UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or 1 when d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d == other }

// AddDays adds n calendar days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// AddMonths adds n calendar months. When the target month is shorter than
// d.Day the result is clamped to its last day, so Jan 31 + 1 month is Feb 28
// (or Feb 29 in a leap year) rather than rolling into March.
func (d Date) AddMonths(n int) Date {
	months := int(d.Month) - 1 + n
	year := d.Year + months/12
	months %= 12
	if months < 0 {
		months += 12
		year--
	}
	month := time.Month(months + 1)
	day := d.Day
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// AddYears adds n calendar years, clamping Feb 29 to Feb 28 in common years.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// Min returns the earlier of two dates.
func Min(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// MarshalJSON emits the date pinned to UTC noon, e.g. "2024-01-31T12:00:00.000Z".
// Clients in any timezone then read back the same calendar day.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time().Format(DateTimeLayoutNoon))
}

// UnmarshalJSON accepts "YYYY-MM-DD" or any ISO datetime string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML renders the date as YYYY-MM-DD.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML parses a YYYY-MM-DD scalar.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(node.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalCSV renders the date for gocsv.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

// UnmarshalCSV parses a gocsv cell.
func (d *Date) UnmarshalCSV(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan reads a date column stored as text or as a timestamp.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
