// Package resin derives a live resin count from a persisted snapshot.
// Projection is pure: callers persist the new snapshot themselves if they
// want the regeneration clock anchored to this evaluation.
package resin

import "time"

// Default in-game values.
const (
	DefaultRegenMinutes = 8
	DefaultCapacity     = 160
)

// Meter holds the regeneration constants. The zero value is unusable;
// use NewMeter.
type Meter struct {
	regenMinutes int
	capacity     int
}

// NewMeter creates a Meter. Non-positive arguments fall back to the
// in-game defaults.
func NewMeter(regenMinutes, capacity int) Meter {
	if regenMinutes <= 0 {
		regenMinutes = DefaultRegenMinutes
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return Meter{regenMinutes: regenMinutes, capacity: capacity}
}

// Capacity returns the pool ceiling.
func (m Meter) Capacity() int { return m.capacity }

// Projection is the derived resin state at some instant.
type Projection struct {
	Amount    int
	UntilFull time.Duration
}

// Full reports whether the pool is at capacity.
func (p Projection) Full() bool { return p.UntilFull == 0 }

// Project computes the current amount and the time remaining until full,
// given the last persisted snapshot. Clock skew (now before lastUpdatedAt)
// yields zero gained, never negative regeneration.
func (m Meter) Project(lastAmount int, lastUpdatedAt, now time.Time) Projection {
	elapsed := now.Sub(lastUpdatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	gained := int(elapsed.Minutes()) / m.regenMinutes

	amount := lastAmount + gained
	if amount > m.capacity {
		amount = m.capacity
	}
	return Projection{Amount: amount, UntilFull: m.untilFull(amount)}
}

// ApplySpend projects to now and subtracts spend, flooring at zero.
// Range validation of spend is the caller's responsibility.
func (m Meter) ApplySpend(lastAmount int, lastUpdatedAt, now time.Time, spend int) Projection {
	p := m.Project(lastAmount, lastUpdatedAt, now)
	amount := p.Amount - spend
	if amount < 0 {
		amount = 0
	}
	return Projection{Amount: amount, UntilFull: m.untilFull(amount)}
}

func (m Meter) untilFull(amount int) time.Duration {
	if amount >= m.capacity {
		return 0
	}
	return time.Duration(m.capacity-amount) * time.Duration(m.regenMinutes) * time.Minute
}
