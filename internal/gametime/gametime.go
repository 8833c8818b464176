// Package gametime computes server reset instants from a region's local
// reset schedule. All arithmetic goes through the region's IANA zone so
// DST transitions are handled by the zone database, never by fixed offsets.
package gametime

import (
	"time"

	"github.com/BraxtonElmer/paimom/internal/region"
)

// Clock resolves reset instants against a region catalog.
type Clock struct {
	catalog *region.Catalog
}

// NewClock creates a Clock over the given catalog.
func NewClock(catalog *region.Catalog) *Clock {
	return &Clock{catalog: catalog}
}

// NextDailyReset returns the next daily reset for the region as a UTC
// instant, strictly after now.
func (c *Clock) NextDailyReset(regionID string, now time.Time) (time.Time, error) {
	r, err := c.catalog.Get(regionID)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(r.Location())
	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		r.DailyResetHour, r.DailyResetMin, 0, 0, r.Location())

	// Reset already happened today: move to the same local wall time
	// tomorrow. AddDate renormalizes through the zone, so the step is
	// 23/24/25 real hours around DST transitions.
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate.UTC(), nil
}

// NextWeeklyReset returns the next weekly reset for the region as a UTC
// instant, strictly after now. Weekly resets use ISO weekday numbering
// (1 = Monday .. 7 = Sunday).
func (c *Clock) NextWeeklyReset(regionID string, now time.Time) (time.Time, error) {
	r, err := c.catalog.Get(regionID)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(r.Location())
	sameDay := time.Date(local.Year(), local.Month(), local.Day(),
		r.WeeklyResetHour, r.WeeklyResetMin, 0, 0, r.Location())

	daysUntil := (r.WeeklyResetDay - isoWeekday(local) + 7) % 7
	if daysUntil == 0 && !sameDay.After(now) {
		daysUntil = 7
	}
	return sameDay.AddDate(0, 0, daysUntil).UTC(), nil
}

// LocalDayName returns the weekday name at now in the region's zone,
// e.g. "Monday". Used to pick which rotating domains are open today.
func (c *Clock) LocalDayName(regionID string, now time.Time) (string, error) {
	r, err := c.catalog.Get(regionID)
	if err != nil {
		return "", err
	}
	return now.In(r.Location()).Weekday().String(), nil
}

// isoWeekday converts Go's Sunday-based weekday to ISO 1..7.
func isoWeekday(t time.Time) int {
	w := int(t.Weekday())
	if w == 0 {
		return 7
	}
	return w
}
