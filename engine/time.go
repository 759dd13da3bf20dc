package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day time point
// =============================================================================

// Date is a calendar day in UTC. All temporal rules in the engine (tier
// windows, promotion ranges, point lifespans) operate at day granularity,
// so this is the only time abstraction the calculators need.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) IsZero() bool    { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) String() string  { return d.t.Format("2006-01-02") }

// MarshalJSON encodes the date as an ISO calendar-day string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
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

// =============================================================================
// WINDOW - Rolling period expressed as a count of days/months/years
// =============================================================================

type WindowUnit string

const (
	UnitDays   WindowUnit = "days"
	UnitMonths WindowUnit = "months"
	UnitYears  WindowUnit = "years"
)

// Window is a span of calendar time, e.g. {6, months} for a six-month
// rolling tier window or a point lifespan.
type Window struct {
	Value int        `json:"value"`
	Unit  WindowUnit `json:"unit"`
}

// StartBefore returns the start of the window ending at ref,
// i.e. ref minus the window span.
func (w Window) StartBefore(ref Date) Date {
	switch w.Unit {
	case UnitMonths:
		return ref.AddMonths(-w.Value)
	case UnitYears:
		return ref.AddYears(-w.Value)
	default:
		return ref.AddDays(-w.Value)
	}
}

// EndAfter returns ref plus the window span. Used for lifespan expiry:
// points earned on day D expire once EndAfter(D) is reached.
func (w Window) EndAfter(ref Date) Date {
	switch w.Unit {
	case UnitMonths:
		return ref.AddMonths(w.Value)
	case UnitYears:
		return ref.AddYears(w.Value)
	default:
		return ref.AddDays(w.Value)
	}
}

// IsZero reports whether the window has no extent.
func (w Window) IsZero() bool { return w.Value == 0 }
