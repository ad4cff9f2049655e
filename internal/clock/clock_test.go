package clock

import (
	"testing"
	"time"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain", time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), 1, time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)},
		{"jan 31 to feb", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"leap year", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year rollover", time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), 3, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"zero", time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 0, time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.in, tt.n); !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	got := MonthStart(time.Date(2025, 7, 19, 23, 59, 0, 0, loc))
	want := time.Date(2025, 7, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("MonthStart = %v, want %v", got, want)
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	c.Advance(48 * time.Hour)
	if got := c.Now(); got.Day() != 3 {
		t.Errorf("expected day 3 after advancing, got %v", got)
	}
	if c.Location() != time.UTC {
		t.Errorf("expected UTC location")
	}
}
