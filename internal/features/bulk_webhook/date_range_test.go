package bulk_webhook

import (
	"testing"
	"time"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		name     string
		period   DynamicDatePeriod
		now      time.Time
		wantFrom string
		wantTo   string
	}{
		{"Daily", PeriodDaily, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), "2024-02-29", "2024-03-01"},
		{"Weekly", PeriodWeekly, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "2023-12-27", "2024-01-03"},
		{"Monthly", PeriodMonthly, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), "2024-04-15", "2024-05-15"},
		{"Monthly clamps to leap day", PeriodMonthly, time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), "2024-02-29", "2024-03-31"},
		{"Monthly clamps to short month", PeriodMonthly, time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC), "2023-04-30", "2023-05-31"},
		{"Quarterly", PeriodQuarterly, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), "2024-02-29", "2024-05-31"},
		{"Half Yearly", PeriodHalfYearly, time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), "2024-02-29", "2024-08-31"},
		{"Yearly from leap day", PeriodYearly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "2023-02-28", "2024-02-29"},
		{"Crosses year boundary", PeriodQuarterly, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "2023-10-10", "2024-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := DateRange(tt.period, tt.now)
			if err != nil {
				t.Fatalf("DateRange() error = %v", err)
			}
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("DateRange() = (%s, %s), want (%s, %s)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDateRangeUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2024-06-30 20:00 UTC is already 1 July in UTC+10
	now := time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC).In(loc)

	from, to, err := DateRange(PeriodDaily, now)
	if err != nil {
		t.Fatalf("DateRange() error = %v", err)
	}
	if from != "2024-06-30" || to != "2024-07-01" {
		t.Errorf("DateRange() = (%s, %s), want (2024-06-30, 2024-07-01)", from, to)
	}
}

func TestDateRangeUnknownPeriod(t *testing.T) {
	if _, _, err := DateRange("Hourly", time.Now()); err == nil {
		t.Error("Expected error for unknown period")
	}
}
