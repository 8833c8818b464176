package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BraxtonElmer/paimom/internal/domain"
)

// TodoRepo defines storage operations for todos. SQLiteRepo implements
// it alongside Repo.
type TodoRepo interface {
	CreateTodo(ctx context.Context, t *domain.Todo) error
	GetTodo(ctx context.Context, id string) (*domain.Todo, error)
	ListTodos(ctx context.Context, userID string, includeCompleted bool) ([]domain.Todo, error)
	ListTodosByCategory(ctx context.Context, userID string, category domain.TodoCategory) ([]domain.Todo, error)
	ListOverdueTodos(ctx context.Context, userID string, now time.Time) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, t *domain.Todo) error
	DeleteTodo(ctx context.Context, id string) error
}

const todoColumns = `id, user_id, title, description, category, completed,
	completed_at, due_date, priority, recurring, linked_character, resin_cost, created_at`

// CreateTodo inserts a new todo.
func (r *SQLiteRepo) CreateTodo(ctx context.Context, t *domain.Todo) error {
	if t == nil {
		return errors.New("nil todo")
	}

	created := t.CreatedAt.UTC().Unix()
	if t.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (
			id, user_id, title, description, category, completed,
			completed_at, due_date, priority, recurring, linked_character,
			resin_cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Category),
		boolToInt(t.Completed), toNullInt64(t.CompletedAt), toNullInt64(t.DueDate),
		t.Priority, string(t.Recurring), t.LinkedCharacter, t.ResinCost, created,
	)
	return err
}

func scanTodo(row interface{ Scan(...any) error }) (*domain.Todo, error) {
	var (
		t           domain.Todo
		category    string
		completed   int
		completedNS sql.NullInt64
		dueNS       sql.NullInt64
		recurring   string
		createdAt   int64
	)
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &category, &completed,
		&completedNS, &dueNS, &t.Priority, &recurring, &t.LinkedCharacter,
		&t.ResinCost, &createdAt,
	); err != nil {
		return nil, err
	}
	t.Category = domain.TodoCategory(category)
	t.Completed = completed != 0
	t.CompletedAt = fromNullInt64(completedNS)
	t.DueDate = fromNullInt64(dueNS)
	t.Recurring = domain.TodoRecurring(recurring)
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &t, nil
}

func (r *SQLiteRepo) queryTodos(ctx context.Context, query string, args ...any) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

// GetTodo returns a todo by ID or ErrNotFound.
func (r *SQLiteRepo) GetTodo(ctx context.Context, id string) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return t, err
}

// todoOrder sorts open before completed, then highest priority, then
// earliest due date (undated last), then oldest.
const todoOrder = `
	ORDER BY completed ASC, priority DESC,
		due_date IS NULL ASC, due_date ASC, created_at ASC`

// ListTodos returns a user's todos, open ones first. Completed todos are
// included only on request.
func (r *SQLiteRepo) ListTodos(ctx context.Context, userID string, includeCompleted bool) ([]domain.Todo, error) {
	if includeCompleted {
		return r.queryTodos(ctx, `
			SELECT `+todoColumns+` FROM todos
			WHERE user_id = ?`+todoOrder,
			userID,
		)
	}
	return r.queryTodos(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE user_id = ? AND completed = 0`+todoOrder,
		userID,
	)
}

// ListTodosByCategory returns a user's open todos in one category.
func (r *SQLiteRepo) ListTodosByCategory(ctx context.Context, userID string, category domain.TodoCategory) ([]domain.Todo, error) {
	return r.queryTodos(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE user_id = ? AND category = ? AND completed = 0
		ORDER BY priority DESC, created_at ASC`,
		userID, string(category),
	)
}

// ListOverdueTodos returns a user's open todos whose due date has passed.
func (r *SQLiteRepo) ListOverdueTodos(ctx context.Context, userID string, now time.Time) ([]domain.Todo, error) {
	return r.queryTodos(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE user_id = ? AND completed = 0
			AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC`,
		userID, now.UTC().Unix(),
	)
}

// UpdateTodo overwrites a todo's mutable fields.
func (r *SQLiteRepo) UpdateTodo(ctx context.Context, t *domain.Todo) error {
	if t == nil {
		return errors.New("nil todo")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, category = ?, completed = ?,
			completed_at = ?, due_date = ?, priority = ?, recurring = ?,
			linked_character = ?, resin_cost = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Category), boolToInt(t.Completed),
		toNullInt64(t.CompletedAt), toNullInt64(t.DueDate), t.Priority,
		string(t.Recurring), t.LinkedCharacter, t.ResinCost, t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("todo %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// DeleteTodo removes a todo by explicit request.
func (r *SQLiteRepo) DeleteTodo(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}
