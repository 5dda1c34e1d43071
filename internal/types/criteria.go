package types

import (
	"fmt"
	"time"
)

// DateLayout is the layout of date inputs on the filter form.
const DateLayout = "2006-01-02"

// FilterCriteria is the ephemeral filter state of a screening page. Zero values
// mean "not set": a blank Category selects the default view, a blank Status
// matches any status, and zero dates leave that bound open.
type FilterCriteria struct {
	Category Category        `json:"category,omitempty" validate:"omitempty,oneof=White Hold Black"`
	Status   ScreeningStatus `json:"status,omitempty"`
	FromDate time.Time       `json:"from_date,omitempty"`
	ToDate   time.Time       `json:"to_date,omitempty"`
}

// HasDateBounds reports whether either date bound is set.
func (c FilterCriteria) HasDateBounds() bool {
	return !c.FromDate.IsZero() || !c.ToDate.IsZero()
}

// ParseCriteria builds criteria from raw form values. Dates use DateLayout and
// are interpreted in loc.
func ParseCriteria(category, status, from, to string, loc *time.Location) (FilterCriteria, error) {
	if loc == nil {
		loc = time.Local
	}

	c := FilterCriteria{
		Category: Category(category),
		Status:   ScreeningStatus(status),
	}
	if !c.Category.IsValid() {
		return FilterCriteria{}, fmt.Errorf("unknown category: %q", category)
	}
	if !c.Status.IsValid() {
		return FilterCriteria{}, fmt.Errorf("unknown screening status: %q", status)
	}

	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return FilterCriteria{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		c.FromDate = t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return FilterCriteria{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		c.ToDate = t
	}

	return c, nil
}

// FormValue returns a date bound formatted for a date input, or "" when unset.
func FormValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
