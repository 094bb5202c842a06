package timerange

import (
	"testing"
	"time"
)

// Wednesday, January 10, 2024
var ref = time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)

func TestWeek(t *testing.T) {
	tests := []struct {
		name       string
		ref        time.Time
		offset     int
		wantStart  time.Time
		wantPeriod string
	}{
		{
			name:       "Current week",
			ref:        ref,
			wantStart:  time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			wantPeriod: "2024-01-08 to 2024-01-14",
		},
		{
			name:       "Last week",
			ref:        ref,
			offset:     -1,
			wantStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantPeriod: "2024-01-01 to 2024-01-07",
		},
		{
			name:       "Two weeks ago crosses the year",
			ref:        ref,
			offset:     -2,
			wantStart:  time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
			wantPeriod: "2023-12-25 to 2023-12-31",
		},
		{
			name:       "Sunday belongs to the week before",
			ref:        time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
			wantStart:  time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			wantPeriod: "2024-01-08 to 2024-01-14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Week(tt.ref, tt.offset)
			if !r.Start.Equal(tt.wantStart) {
				t.Errorf("Week(%v, %d).Start = %v, want %v", tt.ref, tt.offset, r.Start, tt.wantStart)
			}
			if got := r.End.Sub(r.Start); got != 7*24*time.Hour {
				t.Errorf("Week(%v, %d) spans %v", tt.ref, tt.offset, got)
			}
			if got := r.String(); got != tt.wantPeriod {
				t.Errorf("Week(%v, %d).String() = %v, want %v", tt.ref, tt.offset, got, tt.wantPeriod)
			}
		})
	}
}

func TestMonth(t *testing.T) {
	r := Month(ref, -1)
	if want := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Errorf("Month(ref, -1).Start = %v, want %v", r.Start, want)
	}
	if got := r.String(); got != "2023-12-01 to 2023-12-31" {
		t.Errorf("Month(ref, -1).String() = %v", got)
	}
	if !Month(ref, 0).Contains(ref) || Month(ref, -1).Contains(ref) {
		t.Error("Contains disagrees with Month")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"Yesterday", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)},
		{"this-week", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"last-week", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"this-month", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"last-month", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"7d", time.Date(2024, 1, 3, 12, 30, 0, 0, time.UTC)},
		{"36h", time.Date(2024, 1, 9, 0, 30, 0, 0, time.UTC)},
		{"2023-11-05", time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02T15:04:05Z", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseSince(tt.in, ref)
		if err != nil {
			t.Errorf("ParseSince(%q) failed: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSince(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "soon", "-3d", "-1h", "2024-13-01"} {
		if _, err := ParseSince(bad, ref); err == nil {
			t.Errorf("ParseSince(%q) should fail", bad)
		}
	}
}
