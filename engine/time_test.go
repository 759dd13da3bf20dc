package engine_test

import (
	"testing"
	"time"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDate_Comparisons(t *testing.T) {
	a := engine.NewDate(2025, time.March, 10)
	b := engine.NewDate(2025, time.March, 11)

	if !a.Before(b) {
		t.Error("March 10 should be before March 11")
	}
	if !b.After(a) {
		t.Error("March 11 should be after March 10")
	}
	if !a.BeforeOrEqual(a) {
		t.Error("a date should be before-or-equal to itself")
	}
	if !a.AfterOrEqual(a) {
		t.Error("a date should be after-or-equal to itself")
	}
	if a.Equal(b) {
		t.Error("different days should not be equal")
	}
}

func TestDateOf_TruncatesToCalendarDay(t *testing.T) {
	// GIVEN: Two instants on the same calendar day
	// WHEN: Truncating both to a Date
	// THEN: They are the same day

	morning := time.Date(2025, time.June, 5, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2025, time.June, 5, 23, 59, 59, 0, time.UTC)

	if !engine.DateOf(morning).Equal(engine.DateOf(evening)) {
		t.Error("instants on the same day should truncate to the same Date")
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := engine.ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-02-28" {
		t.Errorf("expected 2025-02-28, got %s", d.String())
	}

	if _, err := engine.ParseDate("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}

// =============================================================================
// WINDOW TESTS
// =============================================================================

func TestWindow_StartBefore(t *testing.T) {
	// GIVEN: A six-month window and a reference date
	// WHEN: Computing the window start
	// THEN: The start is exactly six calendar months earlier

	ref := engine.NewDate(2025, time.July, 15)
	w := engine.Window{Value: 6, Unit: engine.UnitMonths}

	want := engine.NewDate(2025, time.January, 15)
	if got := w.StartBefore(ref); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWindow_EndAfter_Units(t *testing.T) {
	ref := engine.NewDate(2025, time.January, 31)

	cases := []struct {
		window engine.Window
		want   engine.Date
	}{
		{engine.Window{Value: 30, Unit: engine.UnitDays}, engine.NewDate(2025, time.March, 2)},
		{engine.Window{Value: 1, Unit: engine.UnitYears}, engine.NewDate(2026, time.January, 31)},
		{engine.Window{Value: 2, Unit: engine.UnitMonths}, engine.NewDate(2025, time.March, 31)},
	}
	for _, c := range cases {
		if got := c.window.EndAfter(ref); !got.Equal(c.want) {
			t.Errorf("%d %s after %s: expected %s, got %s", c.window.Value, c.window.Unit, ref, c.want, got)
		}
	}
}

func TestWindow_IsZero(t *testing.T) {
	if !(engine.Window{}).IsZero() {
		t.Error("empty window should be zero")
	}
	if (engine.Window{Value: 1, Unit: engine.UnitDays}).IsZero() {
		t.Error("one-day window should not be zero")
	}
}
