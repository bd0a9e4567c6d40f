package billing

import "time"

// PeriodEnd approximates the end of a billing period that the processor has
// not reported yet: start plus interval × count. Unknown intervals are
// treated as monthly and a count below one as one.
func PeriodEnd(start time.Time, interval string, count int64) time.Time {
	n := int(count)
	if n < 1 {
		n = 1
	}
	switch interval {
	case "day":
		return start.AddDate(0, 0, n)
	case "week":
		return start.AddDate(0, 0, 7*n)
	case "year":
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, n, 0)
	}
}

// Normalize fills in a missing period end on s and returns it.
func (s *Subscription) Normalize(now time.Time) *Subscription {
	if s.CurrentPeriodStart.IsZero() {
		s.CurrentPeriodStart = now
	}
	if s.CurrentPeriodEnd.IsZero() || !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		s.CurrentPeriodEnd = PeriodEnd(s.CurrentPeriodStart, s.Interval, s.IntervalCount)
	}
	return s
}
