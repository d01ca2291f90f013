package monitoring

import (
	"fmt"
	"time"

	"cpu-monitoring/internal/domain"
)

const dateLayout = "2006-01-02"

// RetentionWindow is how far back a query may reach before its lower bound
// is moved forward.
type RetentionWindow struct {
	Years  int
	Months int
	Days   int
}

// Limit returns the oldest instant reachable from now.
func (w RetentionWindow) Limit(now time.Time) time.Time {
	return now.AddDate(-w.Years, -w.Months, -w.Days)
}

var retentionWindows = map[domain.Granularity]RetentionWindow{
	domain.GranularityMinute: {Days: 7},
	domain.GranularityHour:   {Months: 3},
	domain.GranularityDay:    {Years: 1},
}

func Retention(g domain.Granularity) RetentionWindow {
	return retentionWindows[g]
}

// ValidateTimeRange rejects start after end and end after now.
func ValidateTimeRange(start, end, now time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: startTime %s cannot be after endTime %s",
			domain.ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if end.After(now) {
		return fmt.Errorf("%w: endTime %s after current time cannot be specified",
			domain.ErrInvalidRange, end.Format(time.RFC3339))
	}
	return nil
}

// ValidateDateRange is ValidateTimeRange for calendar dates. All three
// arguments must be midnights in the same location.
func ValidateDateRange(startDate, endDate, today time.Time) error {
	if startDate.After(endDate) {
		return fmt.Errorf("%w: startDate %s cannot be after endDate %s",
			domain.ErrInvalidRange, startDate.Format(dateLayout), endDate.Format(dateLayout))
	}
	if endDate.After(today) {
		return fmt.Errorf("%w: endDate %s after today cannot be specified",
			domain.ErrInvalidRange, endDate.Format(dateLayout))
	}
	return nil
}

// ClampLowerBound returns max(start, now - retention). It never fails.
func ClampLowerBound(start time.Time, g domain.Granularity, now time.Time) time.Time {
	limit := Retention(g).Limit(now)
	if start.Before(limit) {
		return limit
	}
	return start
}

// ClampStartDate is ClampLowerBound at day resolution: the limit is the
// calendar date of now - retention in loc.
func ClampStartDate(startDate time.Time, g domain.Granularity, now time.Time, loc *time.Location) time.Time {
	limit := StartOfDay(Retention(g).Limit(now), loc)
	if startDate.Before(limit) {
		return limit
	}
	return startDate
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay is the last whole second of t's calendar day; samples have
// second precision.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Second)
}
