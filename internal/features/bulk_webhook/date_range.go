package bulk_webhook

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange returns the from/to dates for period, ending today.
// Month steps clamp to the last day of the target month, so
// 31 March minus one month is 29 February in a leap year.
func DateRange(period DynamicDatePeriod, now time.Time) (string, string, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var from time.Time
	switch period {
	case PeriodDaily:
		from = today.AddDate(0, 0, -1)
	case PeriodWeekly:
		from = today.AddDate(0, 0, -7)
	case PeriodMonthly:
		from = addMonths(today, -1)
	case PeriodQuarterly:
		from = addMonths(today, -3)
	case PeriodHalfYearly:
		from = addMonths(today, -6)
	case PeriodYearly:
		from = addMonths(today, -12)
	default:
		return "", "", fmt.Errorf("%w: unknown dynamic date period %q", ErrInvalidWebhook, period)
	}

	return from.Format(dateLayout), today.Format(dateLayout), nil
}

func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
