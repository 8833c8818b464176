package domain

import "time"

// Kind classifies a reminder.
type Kind string

const (
	KindDailyReset  Kind = "daily_reset"
	KindWeeklyReset Kind = "weekly_reset"
	KindDomain      Kind = "domain"
	KindResinFull   Kind = "resin_full"
	KindCustom      Kind = "custom"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDailyReset, KindWeeklyReset, KindDomain, KindResinFull, KindCustom:
		return true
	}
	return false
}

// MetaRegion is the metadata key naming the server region that produced
// a reset reminder.
const MetaRegion = "region"

// Reminder is a scheduled one-shot notification. A dispatched recurring
// reminder spawns an independent successor; the original stays sent.
type Reminder struct {
	ID          string // UUID
	UserID      string
	Kind        Kind
	Title       string
	Body        string
	ScheduledAt time.Time  // UTC
	Sent        bool
	SentAt      *time.Time // UTC, nil while pending
	Recurring   bool
	Recurrence  string // interval pattern for custom kinds, e.g. "90m"
	Metadata    map[string]string
	CreatedAt   time.Time // UTC
}

// Region returns the region ID recorded in metadata, if any.
func (r *Reminder) Region() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[MetaRegion]
}

// Pending reports whether the reminder still awaits dispatch.
func (r *Reminder) Pending() bool { return !r.Sent }
