package domain

import "time"

// User holds per-user settings and the persisted resin snapshot.
type User struct {
	ID                   string // Discord user ID
	RegionID             string
	NotificationsEnabled bool
	DailyReset           bool
	WeeklyReset          bool
	NotifyChannelID      string     // channel for notifications; empty means DM
	ResinAmount          int        // 0..capacity
	ResinUpdatedAt       *time.Time // UTC, nil until first set
	CreatedAt            time.Time  // UTC
}

// TracksResin reports whether the user has ever set their resin.
func (u *User) TracksResin() bool { return u.ResinUpdatedAt != nil }
