package codec

import (
	"errors"
	"time"
)

// ErrInvalidDate is returned by ParseDate when no supported layout matches.
var ErrInvalidDate = errors.New("codec: invalid date")

// Layouts produced by date-like inputs, keyed by input type.
const (
	LayoutDate          = "2006-01-02"
	LayoutDateTimeLocal = "2006-01-02T15:04"
	LayoutMonth         = "2006-01"
	LayoutTime          = "15:04"
)

type layout struct {
	format string
	local  bool
}

// Order matters: zoned layouts first, then the local wall-clock forms.
var dateLayouts = []layout{
	{format: time.RFC3339Nano},
	{format: time.RFC3339},
	{format: "2006-01-02T15:04:05.999999999", local: true},
	{format: "2006-01-02T15:04:05", local: true},
	{format: LayoutDateTimeLocal, local: true},
	{format: LayoutDate},
	{format: LayoutMonth},
}

var timeLayouts = []string{"15:04:05.999999999", "15:04:05", LayoutTime}

// ParseDate parses the text of a date-like input. Date-only and month values
// are UTC midnight; local date-times use time.Local; a bare time of day lands
// on 1970-01-01 UTC.
func ParseDate(s string) (time.Time, error) {
	for _, l := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if l.local {
			t, err = time.ParseInLocation(l.format, s, time.Local)
		} else {
			t, err = time.Parse(l.format, s)
		}
		if err == nil {
			return t, nil
		}
	}
	for _, f := range timeLayouts {
		if t, err := time.Parse(f, s); err == nil {
			return time.Date(1970, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Date is ParseDate without the error: unparseable text yields the zero time,
// which compares equal to any other invalid date.
func Date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatDate renders t for an input of the given type ("date",
// "datetime-local", "month", "time"); other types get canonical RFC3339 in UTC.
func FormatDate(t time.Time, inputType string) string {
	if t.IsZero() {
		return ""
	}
	switch inputType {
	case "date":
		return t.Format(LayoutDate)
	case "datetime-local":
		return t.In(time.Local).Format(LayoutDateTimeLocal)
	case "month":
		return t.Format(LayoutMonth)
	case "time":
		return t.Format(LayoutTime)
	}
	return t.UTC().Format(time.RFC3339Nano)
}
