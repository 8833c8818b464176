// Package reminder owns the lifecycle of time-triggered notifications:
// scheduling against server resets, dispatching due reminders, and
// spawning successors for recurring ones.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/domain"
	"github.com/BraxtonElmer/paimom/internal/gametime"
	"github.com/BraxtonElmer/paimom/internal/resin"
	"github.com/BraxtonElmer/paimom/internal/store"
)

// Sender delivers one reminder to its user. notify.DiscordSender
// implements this.
type Sender interface {
	Send(ctx context.Context, rem *domain.Reminder) error
}

const (
	// DedupWindow is the tolerance within which two scheduled instants of
	// the same (user, kind) count as the same reset. Best-effort guard,
	// not a uniqueness constraint: it absorbs sub-minute jitter between
	// scheduling passes.
	DedupWindow = time.Minute

	// dispatchBatch bounds one dispatch cycle; anything left over is due
	// again next tick.
	dispatchBatch = 200

	// failureHorizon: a reminder this far overdue whose delivery still
	// fails is marked sent so an unreachable user cannot pin the queue.
	failureHorizon = time.Hour
)

// Scheduler coordinates the store, the server clock and the delivery
// collaborator. Safe for concurrent use across distinct users; overlapping
// scheduling passes for the same user rely on the dedup window only.
type Scheduler struct {
	repo   store.Repo
	clock  *gametime.Clock
	sender Sender
	meter  resin.Meter
	log    *zap.Logger
}

// NewScheduler wires a Scheduler.
func NewScheduler(repo store.Repo, clock *gametime.Clock, sender Sender, meter resin.Meter, log *zap.Logger) *Scheduler {
	return &Scheduler{repo: repo, clock: clock, sender: sender, meter: meter, log: log}
}

// Outcome records what happened to one due reminder during a dispatch
// cycle.
type Outcome struct {
	Reminder  domain.Reminder
	Delivered bool
	Err       error
}

// DispatchDue delivers every pending reminder scheduled at or before now,
// oldest first. Failures are isolated per item: a failed delivery is
// logged and the reminder stays pending for the next tick. Recurring
// reminders enqueue their successor once this occurrence is settled,
// whether delivered or dropped at the failure horizon.
func (s *Scheduler) DispatchDue(ctx context.Context, now time.Time) []Outcome {
	due, err := s.repo.ListDue(ctx, now, dispatchBatch)
	if err != nil {
		s.log.Error("list due reminders failed", zap.Error(err))
		return nil
	}

	outcomes := make([]Outcome, 0, len(due))
	for i := range due {
		rem := due[i]
		if err := s.sender.Send(ctx, &rem); err != nil {
			s.log.Warn("reminder delivery failed",
				zap.String("id", rem.ID),
				zap.String("user", rem.UserID),
				zap.String("kind", string(rem.Kind)),
				zap.Error(err))
			if now.Sub(rem.ScheduledAt) > failureHorizon {
				if mErr := s.repo.MarkSent(ctx, rem.ID, now); mErr != nil {
					s.log.Error("drop overdue reminder failed", zap.String("id", rem.ID), zap.Error(mErr))
				} else if rem.Recurring {
					// Dropping this occurrence must not end the chain.
					s.enqueueSuccessor(ctx, &rem, now)
				}
			}
			outcomes = append(outcomes, Outcome{Reminder: rem, Err: err})
			continue
		}

		if err := s.repo.MarkSent(ctx, rem.ID, now); err != nil {
			s.log.Error("mark sent failed", zap.String("id", rem.ID), zap.Error(err))
			outcomes = append(outcomes, Outcome{Reminder: rem, Delivered: true, Err: err})
			continue
		}
		if rem.Recurring {
			s.enqueueSuccessor(ctx, &rem, now)
		}
		outcomes = append(outcomes, Outcome{Reminder: rem, Delivered: true})
	}
	return outcomes
}

// enqueueSuccessor creates the next occurrence of a recurring reminder.
// Daily and weekly reset kinds recompute through the server clock so the
// successor tracks the region's local reset time across DST; custom kinds
// advance by their parsed interval.
func (s *Scheduler) enqueueSuccessor(ctx context.Context, rem *domain.Reminder, now time.Time) {
	next, err := s.nextOccurrence(rem, now)
	if err != nil {
		s.log.Error("compute successor failed", zap.String("id", rem.ID), zap.Error(err))
		return
	}

	successor := &domain.Reminder{
		ID:          uuid.NewString(),
		UserID:      rem.UserID,
		Kind:        rem.Kind,
		Title:       rem.Title,
		Body:        rem.Body,
		ScheduledAt: next,
		Recurring:   true,
		Recurrence:  rem.Recurrence,
		Metadata:    rem.Metadata,
		CreatedAt:   now,
	}
	if err := s.repo.CreateReminder(ctx, successor); err != nil {
		s.log.Error("enqueue successor failed", zap.String("id", rem.ID), zap.Error(err))
		return
	}
	s.log.Info("recurring reminder rescheduled",
		zap.String("user", rem.UserID),
		zap.String("kind", string(rem.Kind)),
		zap.Time("at", next))
}

func (s *Scheduler) nextOccurrence(rem *domain.Reminder, now time.Time) (time.Time, error) {
	switch rem.Kind {
	case domain.KindDailyReset:
		return s.clock.NextDailyReset(rem.Region(), now)
	case domain.KindWeeklyReset:
		return s.clock.NextWeeklyReset(rem.Region(), now)
	default:
		interval, err := domain.ParseRecurrence(rem.Recurrence)
		if err != nil {
			// Pattern-less recurring reminders fall back to one day.
			interval = 24 * time.Hour
		}
		next := rem.ScheduledAt.Add(interval)
		for !next.After(now) {
			next = next.Add(interval)
		}
		return next, nil
	}
}

// EnsureScheduled creates a pending reset reminder of the given kind for
// the user unless one already covers the freshly computed reset instant
// (within DedupWindow). Returns the created reminder, or nil on a no-op.
func (s *Scheduler) EnsureScheduled(ctx context.Context, userID string, kind domain.Kind, regionID string, now time.Time) (*domain.Reminder, error) {
	var (
		target time.Time
		title  string
		body   string
		err    error
	)
	switch kind {
	case domain.KindDailyReset:
		target, err = s.clock.NextDailyReset(regionID, now)
		title, body = "Daily Reset", "Daily commissions and resin have reset!"
	case domain.KindWeeklyReset:
		target, err = s.clock.NextWeeklyReset(regionID, now)
		title, body = "Weekly Reset", "Weekly bosses and reputation have reset!"
	default:
		return nil, fmt.Errorf("kind %q is not a reset reminder", kind)
	}
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.ListPendingByKind(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		if absDuration(pending[i].ScheduledAt.Sub(target)) <= DedupWindow {
			return nil, nil
		}
	}

	rem := &domain.Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		ScheduledAt: target,
		Recurring:   true,
		Metadata:    map[string]string{domain.MetaRegion: regionID},
		CreatedAt:   now,
	}
	if err := s.repo.CreateReminder(ctx, rem); err != nil {
		return nil, err
	}
	s.log.Info("reset reminder scheduled",
		zap.String("user", userID),
		zap.String("kind", string(kind)),
		zap.Time("at", target))
	return rem, nil
}

// ScheduleAll runs the hourly scheduling pass: for every user with
// notifications enabled, ensure their daily and weekly reset reminders
// exist. Per-user errors are logged and do not stop the pass.
func (s *Scheduler) ScheduleAll(ctx context.Context, now time.Time) {
	users, err := s.repo.ListNotifiable(ctx)
	if err != nil {
		s.log.Error("list notifiable users failed", zap.Error(err))
		return
	}
	for i := range users {
		u := &users[i]
		if u.DailyReset {
			if _, err := s.EnsureScheduled(ctx, u.ID, domain.KindDailyReset, u.RegionID, now); err != nil {
				s.log.Error("schedule daily reset failed", zap.String("user", u.ID), zap.Error(err))
			}
		}
		if u.WeeklyReset {
			if _, err := s.EnsureScheduled(ctx, u.ID, domain.KindWeeklyReset, u.RegionID, now); err != nil {
				s.log.Error("schedule weekly reset failed", zap.String("user", u.ID), zap.Error(err))
			}
		}
	}
}

// ScheduleResinFull replaces the user's pending resin-full reminder with
// one at the projected full instant. Called after a resin set/spend. A
// pool already at capacity clears any pending reminder instead.
func (s *Scheduler) ScheduleResinFull(ctx context.Context, u *domain.User, now time.Time) (*domain.Reminder, error) {
	if !u.TracksResin() {
		return nil, nil
	}

	pending, err := s.repo.ListPendingByKind(ctx, u.ID, domain.KindResinFull)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		if err := s.repo.DeleteReminder(ctx, pending[i].ID); err != nil {
			s.log.Warn("replace resin reminder failed", zap.String("id", pending[i].ID), zap.Error(err))
		}
	}

	p := s.meter.Project(u.ResinAmount, *u.ResinUpdatedAt, now)
	if p.Full() {
		return nil, nil
	}

	rem := &domain.Reminder{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Kind:        domain.KindResinFull,
		Title:       "Resin Full",
		Body:        "Your resin should be full or nearly full!",
		ScheduledAt: now.Add(p.UntilFull),
		CreatedAt:   now,
	}
	if err := s.repo.CreateReminder(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
