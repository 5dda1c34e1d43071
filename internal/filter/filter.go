// Package filter selects the visible subset of applicant records for a screening page.
package filter

import (
	"fmt"
	"time"

	"github.com/jonathan/screening-desk/internal/types"
)

// Policy decides how the category criterion is applied.
type Policy int

const (
	// PolicyHideByDefault hides Hold and Black applicants unless a category is
	// chosen explicitly, in which case only that category is shown.
	PolicyHideByDefault Policy = iota
	// PolicyShowAll never filters by category.
	PolicyShowAll
)

func (p Policy) String() string {
	switch p {
	case PolicyHideByDefault:
		return "hide-by-default"
	case PolicyShowAll:
		return "show-all"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the string form of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "hide-by-default":
		return PolicyHideByDefault, nil
	case "show-all":
		return PolicyShowAll, nil
	default:
		return 0, fmt.Errorf("unknown category policy: %q", s)
	}
}

// Apply returns the records that pass criteria under policy, in input order.
// The input slice is not modified.
func Apply(records []types.Applicant, criteria types.FilterCriteria, policy Policy) []types.Applicant {
	var from, to time.Time
	if !criteria.FromDate.IsZero() {
		from = dayStart(criteria.FromDate)
	}
	if !criteria.ToDate.IsZero() {
		to = nextDayStart(criteria.ToDate)
	}

	out := make([]types.Applicant, 0, len(records))
	for _, a := range records {
		if !matchCategory(a.Category, criteria.Category, policy) {
			continue
		}
		if criteria.Status != "" && a.ScreeningStatus != criteria.Status {
			continue
		}
		if criteria.HasDateBounds() && !withinDays(a.CreatedAt, from, to) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchCategory(have, want types.Category, policy Policy) bool {
	if policy == PolicyShowAll {
		return true
	}
	if want == types.CategoryUnset {
		return have != types.CategoryHold && have != types.CategoryBlack
	}
	return have == want
}

// withinDays reports whether created falls in [from, to). A zero bound is open.
// Records without a creation time never match.
func withinDays(created *time.Time, from, to time.Time) bool {
	if created == nil {
		return false
	}
	if !from.IsZero() && created.Before(from) {
		return false
	}
	if !to.IsZero() && !created.Before(to) {
		return false
	}
	return true
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// nextDayStart is midnight after t's day, the exclusive end of that day.
func nextDayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
