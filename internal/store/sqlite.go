package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/BraxtonElmer/paimom/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; keep the pool to one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- Users ---

// UpsertUser inserts or updates a user's settings. The resin snapshot is
// written as-is; UpdateResin exists for the common resin-only mutation.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}

	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, region_id, notifications_enabled, daily_reset, weekly_reset,
			notify_channel_id, resin_amount, resin_updated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			region_id             = excluded.region_id,
			notifications_enabled = excluded.notifications_enabled,
			daily_reset           = excluded.daily_reset,
			weekly_reset          = excluded.weekly_reset,
			notify_channel_id     = excluded.notify_channel_id,
			resin_amount          = excluded.resin_amount,
			resin_updated_at      = excluded.resin_updated_at`,
		u.ID, u.RegionID, boolToInt(u.NotificationsEnabled), boolToInt(u.DailyReset),
		boolToInt(u.WeeklyReset), u.NotifyChannelID, u.ResinAmount,
		toNullInt64(u.ResinUpdatedAt), created,
	)
	return err
}

const userColumns = `id, region_id, notifications_enabled, daily_reset, weekly_reset,
	notify_channel_id, resin_amount, resin_updated_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		notifEnable int
		daily       int
		weekly      int
		resinNS     sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(
		&u.ID, &u.RegionID, &notifEnable, &daily, &weekly,
		&u.NotifyChannelID, &u.ResinAmount, &resinNS, &createdAt,
	); err != nil {
		return nil, err
	}
	u.NotificationsEnabled = notifEnable != 0
	u.DailyReset = daily != 0
	u.WeeklyReset = weekly != 0
	u.ResinUpdatedAt = fromNullInt64(resinNS)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// GetUser returns a user by Discord ID or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

// UpdateResin overwrites the user's resin snapshot in place.
func (r *SQLiteRepo) UpdateResin(ctx context.Context, id string, amount int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET resin_amount = ?, resin_updated_at = ?
		WHERE id = ?`,
		amount, at.UTC().Unix(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListNotifiable returns users with notifications enabled, in no
// particular order.
func (r *SQLiteRepo) ListNotifiable(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE notifications_enabled = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// --- Reminders ---

// CreateReminder inserts a new pending reminder.
func (r *SQLiteRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) error {
	if rem == nil {
		return errors.New("nil reminder")
	}
	meta, err := encodeMetadata(rem.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	created := rem.CreatedAt.UTC().Unix()
	if rem.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			id, user_id, kind, title, body, scheduled_at,
			sent, sent_at, recurring, recurrence, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.UserID, string(rem.Kind), rem.Title, rem.Body,
		rem.ScheduledAt.UTC().Unix(), boolToInt(rem.Sent), toNullInt64(rem.SentAt),
		boolToInt(rem.Recurring), rem.Recurrence, meta, created,
	)
	return err
}

const reminderColumns = `id, user_id, kind, title, body, scheduled_at,
	sent, sent_at, recurring, recurrence, metadata, created_at`

func scanReminder(row interface{ Scan(...any) error }) (*domain.Reminder, error) {
	var (
		rem         domain.Reminder
		kind        string
		scheduledAt int64
		sent        int
		sentNS      sql.NullInt64
		recurring   int
		meta        string
		createdAt   int64
	)
	if err := row.Scan(
		&rem.ID, &rem.UserID, &kind, &rem.Title, &rem.Body, &scheduledAt,
		&sent, &sentNS, &recurring, &rem.Recurrence, &meta, &createdAt,
	); err != nil {
		return nil, err
	}
	m, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	rem.Kind = domain.Kind(kind)
	rem.ScheduledAt = time.Unix(scheduledAt, 0).UTC()
	rem.Sent = sent != 0
	rem.SentAt = fromNullInt64(sentNS)
	rem.Recurring = recurring != 0
	rem.Metadata = m
	rem.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rem, nil
}

func (r *SQLiteRepo) queryReminders(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *rem)
	}
	return res, rows.Err()
}

// ListDue returns up to `limit` pending reminders with scheduled_at <= now,
// oldest first.
func (r *SQLiteRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE sent = 0 AND scheduled_at <= ?
		ORDER BY scheduled_at ASC
		LIMIT ?`,
		now.UTC().Unix(), limit,
	)
}

// ListPending returns a user's pending reminders ordered by scheduled time.
func (r *SQLiteRepo) ListPending(ctx context.Context, userID string) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = ? AND sent = 0
		ORDER BY scheduled_at ASC`,
		userID,
	)
}

// ListPendingByKind narrows ListPending to one reminder kind.
func (r *SQLiteRepo) ListPendingByKind(ctx context.Context, userID string, kind domain.Kind) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = ? AND kind = ? AND sent = 0
		ORDER BY scheduled_at ASC`,
		userID, string(kind),
	)
}

// MarkSent flips a reminder to sent and stamps sent_at. Dispatched
// reminders are retained as history.
func (r *SQLiteRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET sent = 1, sent_at = ?
		WHERE id = ?`,
		at.UTC().Unix(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteReminder removes a reminder by explicit request.
func (r *SQLiteRepo) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return nil
}
