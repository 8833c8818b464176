// Package profile manages per-user settings and the resin snapshot on
// behalf of the command layer. Pure projection lives in internal/resin;
// this service pairs it with persistence.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/domain"
	"github.com/BraxtonElmer/paimom/internal/region"
	"github.com/BraxtonElmer/paimom/internal/reminder"
	"github.com/BraxtonElmer/paimom/internal/resin"
	"github.com/BraxtonElmer/paimom/internal/store"
)

// ErrResinNotTracked means the user never set their resin, so there is no
// snapshot to project from.
var ErrResinNotTracked = errors.New("resin not tracked yet")

const defaultRegionID = "na"

// Service is the user-profile and resin-tracking facade.
type Service struct {
	repo    store.Repo
	meter   resin.Meter
	catalog *region.Catalog
	sched   *reminder.Scheduler
	log     *zap.Logger
}

// NewService wires a Service.
func NewService(repo store.Repo, meter resin.Meter, catalog *region.Catalog, sched *reminder.Scheduler, log *zap.Logger) *Service {
	return &Service{repo: repo, meter: meter, catalog: catalog, sched: sched, log: log}
}

// GetOrCreate returns the user, creating a default profile on first
// interaction.
func (s *Service) GetOrCreate(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	u = &domain.User{
		ID:                   id,
		RegionID:             defaultRegionID,
		NotificationsEnabled: true,
		DailyReset:           true,
		WeeklyReset:          true,
		// The store keeps second precision; truncate so the created
		// profile round-trips exactly.
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.repo.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user profile created", zap.String("user", id))
	return u, nil
}

// SetRegion changes the user's server region after validating it against
// the catalog.
func (s *Service) SetRegion(ctx context.Context, id, regionID string) error {
	if _, err := s.catalog.Get(regionID); err != nil {
		return err
	}
	u, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}
	u.RegionID = regionID
	return s.repo.UpsertUser(ctx, u)
}

// SetNotifications updates the user's notification toggles.
func (s *Service) SetNotifications(ctx context.Context, id string, enabled, daily, weekly bool) error {
	u, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}
	u.NotificationsEnabled = enabled
	u.DailyReset = daily
	u.WeeklyReset = weekly
	return s.repo.UpsertUser(ctx, u)
}

// CheckResin projects the user's current resin and anchors the snapshot
// to this evaluation, so the next projection starts from here.
func (s *Service) CheckResin(ctx context.Context, id string, now time.Time) (resin.Projection, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return resin.Projection{}, err
	}
	if !u.TracksResin() {
		return resin.Projection{}, ErrResinNotTracked
	}

	p := s.meter.Project(u.ResinAmount, *u.ResinUpdatedAt, now)
	if err := s.repo.UpdateResin(ctx, id, p.Amount, now); err != nil {
		return resin.Projection{}, fmt.Errorf("persist resin: %w", err)
	}
	return p, nil
}

// SetResin overwrites the snapshot with a user-provided amount. Range
// validation (0..capacity) is the command layer's responsibility.
func (s *Service) SetResin(ctx context.Context, id string, amount int, now time.Time) (resin.Projection, error) {
	u, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return resin.Projection{}, err
	}
	if err := s.repo.UpdateResin(ctx, id, amount, now); err != nil {
		return resin.Projection{}, err
	}

	u.ResinAmount = amount
	u.ResinUpdatedAt = &now
	s.rescheduleResinFull(ctx, u, now)
	return s.meter.Project(amount, now, now), nil
}

// SpendResin projects to now, subtracts the spend (floored at zero), and
// persists the new snapshot.
func (s *Service) SpendResin(ctx context.Context, id string, spend int, now time.Time) (resin.Projection, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return resin.Projection{}, err
	}
	if !u.TracksResin() {
		return resin.Projection{}, ErrResinNotTracked
	}

	p := s.meter.ApplySpend(u.ResinAmount, *u.ResinUpdatedAt, now, spend)
	if err := s.repo.UpdateResin(ctx, id, p.Amount, now); err != nil {
		return resin.Projection{}, err
	}

	u.ResinAmount = p.Amount
	u.ResinUpdatedAt = &now
	s.rescheduleResinFull(ctx, u, now)
	return p, nil
}

// rescheduleResinFull keeps the resin-full reminder in line with the new
// snapshot. Failures are logged, not surfaced: the resin update itself
// already succeeded.
func (s *Service) rescheduleResinFull(ctx context.Context, u *domain.User, now time.Time) {
	if s.sched == nil || !u.NotificationsEnabled {
		return
	}
	if _, err := s.sched.ScheduleResinFull(ctx, u, now); err != nil {
		s.log.Warn("reschedule resin reminder failed", zap.String("user", u.ID), zap.Error(err))
	}
}
