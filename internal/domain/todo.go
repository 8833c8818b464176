package domain

import "time"

// TodoCategory groups todos by the activity they belong to.
type TodoCategory string

const (
	CategoryDomain  TodoCategory = "domain"
	CategoryBoss    TodoCategory = "boss"
	CategoryFarming TodoCategory = "farming"
	CategoryResin   TodoCategory = "resin"
	CategoryDaily   TodoCategory = "daily"
	CategoryWeekly  TodoCategory = "weekly"
	CategoryOther   TodoCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c TodoCategory) Valid() bool {
	switch c {
	case CategoryDomain, CategoryBoss, CategoryFarming, CategoryResin,
		CategoryDaily, CategoryWeekly, CategoryOther:
		return true
	}
	return false
}

// TodoRecurring says how a completed todo respawns.
type TodoRecurring string

const (
	RecurNone   TodoRecurring = "none"
	RecurDaily  TodoRecurring = "daily"
	RecurWeekly TodoRecurring = "weekly"
)

// Valid reports whether r is one of the known recurrence modes.
func (r TodoRecurring) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly:
		return true
	}
	return false
}

// NextDue returns the successor's due date for a todo completed at now,
// or the zero time for non-recurring todos.
func (r TodoRecurring) NextDue(now time.Time) time.Time {
	switch r {
	case RecurDaily:
		return now.AddDate(0, 0, 1)
	case RecurWeekly:
		return now.AddDate(0, 0, 7)
	}
	return time.Time{}
}

// Todo is one per-user task. Completing a recurring todo spawns a fresh
// open successor; the completed row is kept as history.
type Todo struct {
	ID              string // UUID
	UserID          string
	Title           string
	Description     string
	Category        TodoCategory
	Completed       bool
	CompletedAt     *time.Time // UTC, nil while open
	DueDate         *time.Time // UTC, nil when undated
	Priority        int        // higher sorts first
	Recurring       TodoRecurring
	LinkedCharacter string // character name when tied to a build
	ResinCost       int
	CreatedAt       time.Time // UTC
}

// Overdue reports whether an open, dated todo is past due at now.
func (t *Todo) Overdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}
