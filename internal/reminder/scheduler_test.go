package reminder

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/domain"
	"github.com/BraxtonElmer/paimom/internal/gametime"
	"github.com/BraxtonElmer/paimom/internal/region"
	"github.com/BraxtonElmer/paimom/internal/resin"
	"github.com/BraxtonElmer/paimom/internal/store"
)

// fakeRepo is an in-memory store.Repo for scheduler tests.
type fakeRepo struct {
	users     map[string]domain.User
	reminders map[string]domain.Reminder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     make(map[string]domain.User),
		reminders: make(map[string]domain.Reminder),
	}
}

func (f *fakeRepo) UpsertUser(_ context.Context, u *domain.User) error {
	f.users[u.ID] = *u
	return nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepo) UpdateResin(_ context.Context, id string, amount int, at time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ResinAmount = amount
	u.ResinUpdatedAt = &at
	f.users[id] = u
	return nil
}

func (f *fakeRepo) ListNotifiable(_ context.Context) ([]domain.User, error) {
	var res []domain.User
	for _, u := range f.users {
		if u.NotificationsEnabled {
			res = append(res, u)
		}
	}
	return res, nil
}

func (f *fakeRepo) CreateReminder(_ context.Context, r *domain.Reminder) error {
	f.reminders[r.ID] = *r
	return nil
}

func (f *fakeRepo) ListDue(_ context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	var res []domain.Reminder
	for _, r := range f.reminders {
		if !r.Sent && !r.ScheduledAt.After(now) {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ScheduledAt.Before(res[j].ScheduledAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeRepo) ListPending(_ context.Context, userID string) ([]domain.Reminder, error) {
	var res []domain.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID && !r.Sent {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ScheduledAt.Before(res[j].ScheduledAt) })
	return res, nil
}

func (f *fakeRepo) ListPendingByKind(ctx context.Context, userID string, kind domain.Kind) ([]domain.Reminder, error) {
	all, _ := f.ListPending(ctx, userID)
	var res []domain.Reminder
	for _, r := range all {
		if r.Kind == kind {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	r, ok := f.reminders[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Sent = true
	r.SentAt = &at
	f.reminders[id] = r
	return nil
}

func (f *fakeRepo) DeleteReminder(_ context.Context, id string) error {
	if _, ok := f.reminders[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.reminders, id)
	return nil
}

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) pendingCount() int {
	n := 0
	for _, r := range f.reminders {
		if !r.Sent {
			n++
		}
	}
	return n
}

// fakeSender records deliveries and can fail selected titles.
type fakeSender struct {
	sent     []string // reminder IDs in delivery order
	failIDs  map[string]bool
	lastSend *domain.Reminder
}

func (f *fakeSender) Send(_ context.Context, rem *domain.Reminder) error {
	if f.failIDs[rem.ID] {
		return errors.New("recipient unreachable")
	}
	f.sent = append(f.sent, rem.ID)
	f.lastSend = rem
	return nil
}

func newTestScheduler(t *testing.T, repo store.Repo, sender Sender) *Scheduler {
	t.Helper()
	cat, err := region.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewScheduler(repo, gametime.NewClock(cat), sender, resin.NewMeter(8, 160), zap.NewNop())
}

func pendingReminder(id, userID string, kind domain.Kind, at time.Time, recurring bool) domain.Reminder {
	return domain.Reminder{
		ID:          id,
		UserID:      userID,
		Kind:        kind,
		Title:       "t",
		ScheduledAt: at,
		Recurring:   recurring,
		Metadata:    map[string]string{domain.MetaRegion: "eu"},
	}
}

func TestEnsureScheduled_CreatesOncePerWindow(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	first, err := s.EnsureScheduled(ctx, "u1", domain.KindDailyReset, "eu", now)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first == nil {
		t.Fatal("first call should create a reminder")
	}

	// Second pass 30s later targets an instant within the dedup window.
	second, err := s.EnsureScheduled(ctx, "u1", domain.KindDailyReset, "eu", now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second != nil {
		t.Fatalf("duplicate created: %+v", second)
	}
	if repo.pendingCount() != 1 {
		t.Fatalf("want 1 pending, got %d", repo.pendingCount())
	}
}

func TestEnsureScheduled_DistinctKindsCoexist(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	if _, err := s.EnsureScheduled(ctx, "u1", domain.KindDailyReset, "eu", now); err != nil {
		t.Fatalf("daily: %v", err)
	}
	weekly, err := s.EnsureScheduled(ctx, "u1", domain.KindWeeklyReset, "eu", now)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if weekly == nil {
		t.Fatal("weekly should not be deduped against daily")
	}
	if repo.pendingCount() != 2 {
		t.Fatalf("want 2 pending, got %d", repo.pendingCount())
	}
}

func TestEnsureScheduled_UnknownRegion(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	_, err := s.EnsureScheduled(context.Background(), "u1", domain.KindDailyReset, "mars", time.Now())
	if !errors.Is(err, region.ErrUnknownRegion) {
		t.Fatalf("want ErrUnknownRegion, got %v", err)
	}
}

func TestEnsureScheduled_RejectsNonResetKind(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	if _, err := s.EnsureScheduled(context.Background(), "u1", domain.KindCustom, "eu", time.Now()); err == nil {
		t.Fatal("want error for non-reset kind")
	}
}

func TestDispatchDue_OldestFirstAndFaultIsolated(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{failIDs: map[string]bool{"r2": true}}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	for _, r := range []domain.Reminder{
		pendingReminder("r1", "u1", domain.KindCustom, now.Add(-3*time.Minute), false),
		pendingReminder("r2", "u2", domain.KindCustom, now.Add(-2*time.Minute), false),
		pendingReminder("r3", "u3", domain.KindCustom, now.Add(-1*time.Minute), false),
	} {
		rr := r
		if err := repo.CreateReminder(ctx, &rr); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	outcomes := s.DispatchDue(ctx, now)
	if len(outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(outcomes))
	}
	// Oldest first.
	if outcomes[0].Reminder.ID != "r1" || outcomes[1].Reminder.ID != "r2" || outcomes[2].Reminder.ID != "r3" {
		t.Fatalf("wrong order: %v", outcomes)
	}
	if !outcomes[0].Delivered || outcomes[1].Delivered || !outcomes[2].Delivered {
		t.Fatalf("delivery flags wrong: %+v", outcomes)
	}

	// The failed one stays pending; the others are dispatched.
	if !repo.reminders["r1"].Sent || !repo.reminders["r3"].Sent {
		t.Fatal("successful reminders not marked sent")
	}
	if repo.reminders["r2"].Sent {
		t.Fatal("failed reminder must stay pending")
	}
	if repo.reminders["r1"].SentAt == nil || !repo.reminders["r1"].SentAt.Equal(now) {
		t.Fatalf("sentAt not stamped: %+v", repo.reminders["r1"])
	}
}

func TestDispatchDue_FailedDeliveryRetriesNextTick(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{failIDs: map[string]bool{"r1": true}}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	rem := pendingReminder("r1", "u1", domain.KindCustom, now.Add(-time.Minute), false)
	if err := repo.CreateReminder(ctx, &rem); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.DispatchDue(ctx, now)
	if repo.reminders["r1"].Sent {
		t.Fatal("should stay pending after one failure")
	}

	// Delivery recovers on the next tick.
	sender.failIDs = nil
	outcomes := s.DispatchDue(ctx, now.Add(time.Minute))
	if len(outcomes) != 1 || !outcomes[0].Delivered {
		t.Fatalf("want recovered delivery, got %+v", outcomes)
	}
}

func TestDispatchDue_DropsFarOverdueFailures(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{failIDs: map[string]bool{"r1": true}}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	rem := pendingReminder("r1", "u1", domain.KindCustom, now.Add(-2*time.Hour), false)
	if err := repo.CreateReminder(ctx, &rem); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.DispatchDue(ctx, now)
	if !repo.reminders["r1"].Sent {
		t.Fatal("reminder overdue past the horizon should be dropped")
	}
}

func TestDispatchDue_DroppedRecurringStillSpawnsSuccessor(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{failIDs: map[string]bool{"r1": true}}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	rem := pendingReminder("r1", "u1", domain.KindCustom, now.Add(-3*time.Hour), true)
	rem.Recurrence = "2h"
	if err := repo.CreateReminder(ctx, &rem); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.DispatchDue(ctx, now)
	if !repo.reminders["r1"].Sent {
		t.Fatal("reminder overdue past the horizon should be dropped")
	}

	// The chain survives the drop: a fresh pending occurrence exists.
	pending, _ := repo.ListPendingByKind(ctx, "u1", domain.KindCustom)
	if len(pending) != 1 {
		t.Fatalf("want 1 successor, got %d", len(pending))
	}
	// Scheduled -3h, stepping +2h: next occurrence after now is +1h.
	if want := now.Add(time.Hour); !pending[0].ScheduledAt.Equal(want) {
		t.Fatalf("successor at %v, want %v", pending[0].ScheduledAt, want)
	}
}

func TestDispatchDue_RecurringDailySpawnsSuccessorViaClock(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()

	// Due at the EU daily reset on May 5; dispatch a minute later.
	loc, _ := time.LoadLocation("Europe/Berlin")
	resetAt := time.Date(2025, time.May, 5, 4, 0, 0, 0, loc).UTC()
	now := resetAt.Add(time.Minute)

	rem := pendingReminder("r1", "u1", domain.KindDailyReset, resetAt, true)
	if err := repo.CreateReminder(ctx, &rem); err != nil {
		t.Fatalf("create: %v", err)
	}

	outcomes := s.DispatchDue(ctx, now)
	if len(outcomes) != 1 || !outcomes[0].Delivered {
		t.Fatalf("dispatch failed: %+v", outcomes)
	}

	pending, _ := repo.ListPendingByKind(ctx, "u1", domain.KindDailyReset)
	if len(pending) != 1 {
		t.Fatalf("want 1 successor, got %d", len(pending))
	}
	succ := pending[0]
	if succ.ID == "r1" || succ.Sent || succ.SentAt != nil {
		t.Fatalf("successor must be a fresh pending instance: %+v", succ)
	}
	want := time.Date(2025, time.May, 6, 4, 0, 0, 0, loc).UTC()
	if !succ.ScheduledAt.Equal(want) {
		t.Fatalf("successor at %v, want %v", succ.ScheduledAt, want)
	}
	if !succ.Recurring || succ.Region() != "eu" {
		t.Fatalf("successor lost recurrence or metadata: %+v", succ)
	}
}

func TestDispatchDue_CustomRecurrenceAdvancesPastNow(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender)
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	rem := pendingReminder("r1", "u1", domain.KindCustom, now.Add(-5*time.Hour), true)
	rem.Recurrence = "2h"
	if err := repo.CreateReminder(ctx, &rem); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.DispatchDue(ctx, now)
	pending, _ := repo.ListPendingByKind(ctx, "u1", domain.KindCustom)
	if len(pending) != 1 {
		t.Fatalf("want 1 successor, got %d", len(pending))
	}
	// Scheduled -5h, stepping +2h: next occurrence after now is +1h.
	want := now.Add(time.Hour)
	if !pending[0].ScheduledAt.Equal(want) {
		t.Fatalf("successor at %v, want %v", pending[0].ScheduledAt, want)
	}
}

func TestScheduleAll_HonorsUserToggles(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	users := []domain.User{
		{ID: "both", RegionID: "eu", NotificationsEnabled: true, DailyReset: true, WeeklyReset: true},
		{ID: "daily-only", RegionID: "asia", NotificationsEnabled: true, DailyReset: true},
		{ID: "muted", RegionID: "na", NotificationsEnabled: false, DailyReset: true, WeeklyReset: true},
	}
	for i := range users {
		if err := repo.UpsertUser(ctx, &users[i]); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	s.ScheduleAll(ctx, now)

	both, _ := repo.ListPending(ctx, "both")
	if len(both) != 2 {
		t.Fatalf("both: want 2, got %d", len(both))
	}
	dailyOnly, _ := repo.ListPending(ctx, "daily-only")
	if len(dailyOnly) != 1 || dailyOnly[0].Kind != domain.KindDailyReset {
		t.Fatalf("daily-only: got %+v", dailyOnly)
	}
	muted, _ := repo.ListPending(ctx, "muted")
	if len(muted) != 0 {
		t.Fatalf("muted: want 0, got %d", len(muted))
	}

	// A second hourly pass creates nothing new.
	s.ScheduleAll(ctx, now.Add(time.Hour))
	if n := repo.pendingCount(); n != 3 {
		t.Fatalf("second pass duplicated reminders: %d pending", n)
	}
}

func TestScheduleResinFull_ReplacesPending(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	at := now
	u := &domain.User{ID: "u1", RegionID: "eu", ResinAmount: 152, ResinUpdatedAt: &at}
	if err := repo.UpsertUser(ctx, u); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	first, err := s.ScheduleResinFull(ctx, u, now)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	// 8 resin to go at 8 min each.
	if first == nil || !first.ScheduledAt.Equal(now.Add(64*time.Minute)) {
		t.Fatalf("first: %+v", first)
	}

	// User updates resin; old reminder is replaced, not duplicated.
	u.ResinAmount = 40
	second, err := s.ScheduleResinFull(ctx, u, now)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second == nil {
		t.Fatal("second reminder missing")
	}
	pending, _ := repo.ListPendingByKind(ctx, "u1", domain.KindResinFull)
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("want only the replacement pending, got %+v", pending)
	}
}

func TestScheduleResinFull_FullPoolClears(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	ctx := context.Background()
	now := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	at := now
	u := &domain.User{ID: "u1", RegionID: "eu", ResinAmount: 10, ResinUpdatedAt: &at}
	if _, err := s.ScheduleResinFull(ctx, u, now); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	u.ResinAmount = 160
	rem, err := s.ScheduleResinFull(ctx, u, now)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if rem != nil {
		t.Fatalf("full pool should not schedule: %+v", rem)
	}
	if repo.pendingCount() != 0 {
		t.Fatalf("stale resin reminder left pending")
	}
}

func TestScheduleResinFull_UntrackedUserNoOp(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(t, repo, &fakeSender{})
	u := &domain.User{ID: "u1", RegionID: "eu"}
	rem, err := s.ScheduleResinFull(context.Background(), u, time.Now())
	if err != nil || rem != nil {
		t.Fatalf("want no-op, got %v, %v", rem, err)
	}
}
