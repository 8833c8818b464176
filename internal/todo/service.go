// Package todo manages per-user task lists: creation, category views,
// completion with recurring respawn, and overdue lookups.
package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/domain"
	"github.com/BraxtonElmer/paimom/internal/store"
)

var ErrEmptyTitle = errors.New("todo title is empty")

// Service is the task-list facade the command layer calls.
type Service struct {
	repo store.TodoRepo
	log  *zap.Logger
}

// NewService wires a Service.
func NewService(repo store.TodoRepo, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateInput carries the user-supplied fields for a new todo. Zero
// values fall back to the defaults: category "other", not recurring.
type CreateInput struct {
	Title           string
	Description     string
	Category        domain.TodoCategory
	Priority        int
	Recurring       domain.TodoRecurring
	LinkedCharacter string
	ResinCost       int
	DueDate         *time.Time
}

// Create validates the input and stores a new open todo.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Todo, error) {
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	if in.Category == "" {
		in.Category = domain.CategoryOther
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", in.Category)
	}
	if in.Recurring == "" {
		in.Recurring = domain.RecurNone
	}
	if !in.Recurring.Valid() {
		return nil, fmt.Errorf("unknown recurrence %q", in.Recurring)
	}

	t := &domain.Todo{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           in.Title,
		Description:     in.Description,
		Category:        in.Category,
		Priority:        in.Priority,
		Recurring:       in.Recurring,
		LinkedCharacter: in.LinkedCharacter,
		ResinCost:       in.ResinCost,
		DueDate:         in.DueDate,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	if err := s.repo.CreateTodo(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("todo created",
		zap.String("user", userID),
		zap.String("title", in.Title),
		zap.String("category", string(in.Category)))
	return t, nil
}

// List returns the user's todos, open ones first.
func (s *Service) List(ctx context.Context, userID string, includeCompleted bool) ([]domain.Todo, error) {
	return s.repo.ListTodos(ctx, userID, includeCompleted)
}

// ByCategory returns the user's open todos in one category.
func (s *Service) ByCategory(ctx context.Context, userID string, category domain.TodoCategory) ([]domain.Todo, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	return s.repo.ListTodosByCategory(ctx, userID, category)
}

// Overdue returns the user's open todos past their due date.
func (s *Service) Overdue(ctx context.Context, userID string, now time.Time) ([]domain.Todo, error) {
	return s.repo.ListOverdueTodos(ctx, userID, now)
}

// Complete marks the todo done and, for recurring todos, spawns a fresh
// open successor due one day or one week from now. The completed row
// stays as history.
func (s *Service) Complete(ctx context.Context, id string, now time.Time) (*domain.Todo, error) {
	t, err := s.repo.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	at := now
	t.Completed = true
	t.CompletedAt = &at
	if err := s.repo.UpdateTodo(ctx, t); err != nil {
		return nil, err
	}

	if t.Recurring != domain.RecurNone {
		if err := s.spawnSuccessor(ctx, t, now); err != nil {
			// The completion itself stands; the user can recreate the todo.
			s.log.Error("spawn recurring todo failed", zap.String("id", t.ID), zap.Error(err))
		}
	}
	s.log.Info("todo completed", zap.String("user", t.UserID), zap.String("id", t.ID))
	return t, nil
}

func (s *Service) spawnSuccessor(ctx context.Context, t *domain.Todo, now time.Time) error {
	due := t.Recurring.NextDue(now)
	successor := &domain.Todo{
		ID:              uuid.NewString(),
		UserID:          t.UserID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		Priority:        t.Priority,
		Recurring:       t.Recurring,
		LinkedCharacter: t.LinkedCharacter,
		ResinCost:       t.ResinCost,
		DueDate:         &due,
		CreatedAt:       now,
	}
	return s.repo.CreateTodo(ctx, successor)
}

// Update overwrites the todo's editable fields with the input, keeping
// its completion state.
func (s *Service) Update(ctx context.Context, id string, in CreateInput) (*domain.Todo, error) {
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", in.Category)
	}
	if !in.Recurring.Valid() {
		return nil, fmt.Errorf("unknown recurrence %q", in.Recurring)
	}

	t, err := s.repo.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Title = in.Title
	t.Description = in.Description
	t.Category = in.Category
	t.Priority = in.Priority
	t.Recurring = in.Recurring
	t.LinkedCharacter = in.LinkedCharacter
	t.ResinCost = in.ResinCost
	t.DueDate = in.DueDate
	if err := s.repo.UpdateTodo(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a todo.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteTodo(ctx, id); err != nil {
		return err
	}
	s.log.Info("todo deleted", zap.String("id", id))
	return nil
}
