// Package calendar finds interview slots shared by interviewers.
package calendar

import (
	"context"
	"time"
)

// DisplayLayout is how slots are rendered in invitations.
const DisplayLayout = "Monday, January 02, 2006 at 03:04 PM"

// Slot is one bookable interview start time.
type Slot struct {
	Start     time.Time
	Formatted string
}

// SlotFinder returns open slots shared by both parties, earliest first.
type SlotFinder interface {
	FindSlots(ctx context.Context, partyA, partyB string) ([]Slot, error)
}

// WorkingHoursFinder offers a morning and an afternoon slot on each of the
// next business days. It does not consult real calendars.
type WorkingHoursFinder struct {
	loc   *time.Location
	days  int
	hours []int
	now   func() time.Time
}

// NewWorkingHoursFinder creates a finder that offers slots over the next
// days business days in loc.
func NewWorkingHoursFinder(loc *time.Location, days int) *WorkingHoursFinder {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		days = 3
	}
	return &WorkingHoursFinder{loc: loc, days: days, hours: []int{10, 14}, now: time.Now}
}

var _ SlotFinder = (*WorkingHoursFinder)(nil)

func (f *WorkingHoursFinder) FindSlots(ctx context.Context, _, _ string) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := f.now().In(f.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.loc)

	slots := make([]Slot, 0, f.days*len(f.hours))
	for found := 0; found < f.days; {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, h := range f.hours {
			start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, f.loc)
			slots = append(slots, Slot{Start: start, Formatted: start.Format(DisplayLayout)})
		}
		found++
	}
	return slots, nil
}
