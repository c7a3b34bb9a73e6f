package calendar

import (
	"time"

	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// BusinessPolicy describes which hours count toward an SLA deadline.
// Days use ISO numbering: Monday=1 .. Sunday=7. EndHour is exclusive.
type BusinessPolicy struct {
	BusinessHoursOnly bool
	StartHour         int
	EndHour           int
	Days              map[int]bool
}

// AlwaysOn is the policy for wall-clock SLAs.
func AlwaysOn() BusinessPolicy {
	return BusinessPolicy{BusinessHoursOnly: false}
}

// NewBusinessPolicy builds a business-hours policy over the given weekdays.
func NewBusinessPolicy(startHour, endHour int, days []int) BusinessPolicy {
	set := make(map[int]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return BusinessPolicy{
		BusinessHoursOnly: true,
		StartHour:         startHour,
		EndHour:           endHour,
		Days:              set,
	}
}

// Validate rejects malformed business-hours policies.
func (p BusinessPolicy) Validate() error {
	if !p.BusinessHoursOnly {
		return nil
	}
	if p.StartHour < 0 || p.EndHour > 24 || p.StartHour >= p.EndHour {
		return apperrors.NewConfigurationError("business start hour must precede end hour", map[string]any{
			"start_hour": p.StartHour,
			"end_hour":   p.EndHour,
		})
	}
	if len(p.Days) == 0 {
		return apperrors.NewConfigurationError("business policy has no working days", nil)
	}
	return nil
}

// isoWeekday converts Go's Sunday=0 numbering to Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// hoursEpsilon bounds float drift when consuming fractional hours.
const hoursEpsilon = 1e-9

// ComputeDeadline returns the instant by which `hours` of SLA time elapse
// after start. Without a business-hours policy this is plain wall-clock
// addition. With one, hours are consumed only inside business windows; a
// start outside any window is first advanced to the next window, and a
// deadline landing exactly on a window end rolls to the next window start.
// Zero or negative hours return start unchanged.
func ComputeDeadline(start time.Time, hours float64, policy BusinessPolicy) (time.Time, error) {
	if hours <= 0 {
		return start, nil
	}
	if !policy.BusinessHoursOnly {
		return start.Add(durationFromHours(hours)), nil
	}
	if err := policy.Validate(); err != nil {
		return time.Time{}, err
	}

	cur := start
	remaining := hours
	for remaining > hoursEpsilon {
		cur = nextWindowStart(cur, policy)
		windowEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), policy.EndHour, 0, 0, 0, cur.Location())
		available := windowEnd.Sub(cur).Hours()
		step := remaining
		if available < step {
			step = available
		}
		cur = cur.Add(durationFromHours(step))
		remaining -= step
	}
	// Landing exactly on a window boundary is zero business hours away from
	// the next window start; normalize so the deadline sits inside a window.
	return nextWindowStart(cur, policy), nil
}

// nextWindowStart returns cur if it is inside a business window, otherwise
// the start of the next window at or after cur.
func nextWindowStart(cur time.Time, policy BusinessPolicy) time.Time {
	for {
		if policy.Days[isoWeekday(cur)] {
			dayStart := time.Date(cur.Year(), cur.Month(), cur.Day(), policy.StartHour, 0, 0, 0, cur.Location())
			dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), policy.EndHour, 0, 0, 0, cur.Location())
			if cur.Before(dayStart) {
				return dayStart
			}
			if cur.Before(dayEnd) {
				return cur
			}
		}
		next := cur.AddDate(0, 0, 1)
		cur = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
	}
}

func durationFromHours(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
