package domain

import (
	"time"

	"github.com/marketbridge/settlement-service/pkg/timeutil"
)

// earliestOrderDate bounds open-ended ranges; no marketplace data predates it.
var earliestOrderDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// DateRange is a half-open reporting window [From, To]. A zero bound means
// the side was not given by the caller.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Normalize fills open bounds (earliest order date / now) and returns a
// range guaranteed to satisfy From <= To. A nil receiver yields the full
// default window. now is injected for testability.
func (r *DateRange) Normalize(now time.Time) (DateRange, error) {
	out := DateRange{From: earliestOrderDate, To: timeutil.ToUTC(now)}
	if r != nil {
		if !r.From.IsZero() {
			out.From = timeutil.ToUTC(r.From)
		}
		if !r.To.IsZero() {
			out.To = timeutil.ToUTC(r.To)
		}
	}
	if out.From.After(out.To) {
		return DateRange{}, NewDomainError(ErrorCodeValidationInvalidRange, "invalid date range").
			WithDetail("from", out.From).
			WithDetail("to", out.To)
	}
	return out, nil
}

// Fingerprint renders the range at day granularity for use in cache keys
func (r DateRange) Fingerprint() string {
	return timeutil.DayKey(r.From) + ":" + timeutil.DayKey(r.To)
}

// LastDays returns the window covering the trailing n days up to now
func LastDays(n int, now time.Time) DateRange {
	now = timeutil.ToUTC(now)
	return DateRange{From: now.AddDate(0, 0, -n), To: now}
}
