package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RibertaGames/routine-todo-api/internal/crypto"
	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/repository"
)

// parseDate parses a YYYY-MM-DD string into *time.Time.
// Returns nil if input is nil.
func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", ErrInvalidInput)
	}
	return &t, nil
}

type CreateTaskInput struct {
	Text          string
	ScheduledDate *string // YYYY-MM-DD, defaults to today
}

type UpdateTaskInput struct {
	Text          *string
	ScheduledDate *string
}

// TaskService owns one-off task CRUD. Text is encrypted with the owner's
// key before any repository write and decrypted after every read.
type TaskService struct {
	repo   repository.TaskRepository
	cipher crypto.Cipher
	clock  Clock
}

func NewTaskService(repo repository.TaskRepository, cipher crypto.Cipher, clock Clock) *TaskService {
	return &TaskService{repo: repo, cipher: cipher, clock: clock}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (model.Task, error) {
	if input.Text == "" {
		return model.Task{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	scheduled, err := parseDate(input.ScheduledDate)
	if err != nil {
		return model.Task{}, err
	}
	if scheduled == nil {
		today := s.clock.Today()
		scheduled = &today
	}

	stored, err := s.cipher.Encrypt(input.Text, userID)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to encrypt task text: %w", err)
	}

	task := model.Task{
		UserID:        userID,
		Text:          stored,
		Done:          false,
		ScheduledDate: *scheduled,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	created.Text = input.Text
	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return s.decrypt(task, userID)
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (model.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for update: %w", err)
	}

	plain := ""
	if input.Text != nil {
		if *input.Text == "" {
			return model.Task{}, fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
		}
		plain = *input.Text
		stored, err := s.cipher.Encrypt(plain, userID)
		if err != nil {
			return model.Task{}, fmt.Errorf("failed to encrypt task text: %w", err)
		}
		existing.Text = stored
	}
	if input.ScheduledDate != nil {
		scheduled, err := parseDate(input.ScheduledDate)
		if err != nil {
			return model.Task{}, err
		}
		existing.ScheduledDate = *scheduled
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	if input.Text != nil {
		updated.Text = plain
		return updated, nil
	}
	return s.decrypt(updated, userID)
}

func (s *TaskService) SetDone(ctx context.Context, userID, taskID string, done bool) (model.Task, error) {
	task, err := s.repo.SetDone(ctx, userID, taskID, done)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to update task status: %w", err)
	}
	return s.decrypt(task, userID)
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	err := s.repo.Delete(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// List returns the owner's tasks ordered by creation time ascending.
func (s *TaskService) List(ctx context.Context, userID string, done *bool) ([]model.Task, error) {
	tasks, err := s.repo.List(ctx, model.TaskListParams{UserID: userID, Done: done})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	for i := range tasks {
		tasks[i], err = s.decrypt(tasks[i], userID)
		if err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// ListGrouped returns the day-grouped, newest-day-first view derived from
// the full task list.
func (s *TaskService) ListGrouped(ctx context.Context, userID string) ([]model.TaskGroup, error) {
	tasks, err := s.List(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	return model.GroupTasksByDate(tasks), nil
}

func (s *TaskService) decrypt(task model.Task, userID string) (model.Task, error) {
	plain, err := s.cipher.Decrypt(task.Text, userID)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to decrypt task text: %w", err)
	}
	task.Text = plain
	return task, nil
}
