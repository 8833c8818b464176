package store

import (
	"context"
	"errors"
	"time"

	"github.com/BraxtonElmer/paimom/internal/domain"
)

// ErrNotFound reports a missing user or reminder, as opposed to a
// transient storage failure.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users and reminders.
type Repo interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateResin(ctx context.Context, id string, amount int, at time.Time) error
	ListNotifiable(ctx context.Context) ([]domain.User, error)

	CreateReminder(ctx context.Context, r *domain.Reminder) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	ListPending(ctx context.Context, userID string) ([]domain.Reminder, error)
	ListPendingByKind(ctx context.Context, userID string, kind domain.Kind) ([]domain.Reminder, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	DeleteReminder(ctx context.Context, id string) error

	Close() error
}
