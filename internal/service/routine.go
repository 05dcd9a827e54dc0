package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RibertaGames/routine-todo-api/internal/crypto"
	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/repository"
)

type CreateRoutineInput struct {
	Text     string
	Repeat   string
	Weekdays []int
}

type UpdateRoutineInput struct {
	Text     *string
	Repeat   *string
	Weekdays *[]int
}

// RoutineService owns routine definition CRUD. Validation happens before any
// persistence call so a rejected definition never reaches the store.
type RoutineService struct {
	repo   repository.RoutineRepository
	cipher crypto.Cipher
}

func NewRoutineService(repo repository.RoutineRepository, cipher crypto.Cipher) *RoutineService {
	return &RoutineService{repo: repo, cipher: cipher}
}

func validateRepeat(kind model.RepeatKind, weekdays []int) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: repeat must be %q or %q", ErrInvalidInput, model.RepeatDaily, model.RepeatWeekly)
	}
	if kind == model.RepeatWeekly && len(weekdays) == 0 {
		return fmt.Errorf("%w: weekly routine requires at least one weekday", ErrInvalidInput)
	}
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range 0..6", ErrInvalidInput, d)
		}
	}
	return nil
}

func (s *RoutineService) Create(ctx context.Context, userID string, input CreateRoutineInput) (model.Routine, error) {
	if input.Text == "" {
		return model.Routine{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	kind := model.RepeatKind(input.Repeat)
	if err := validateRepeat(kind, input.Weekdays); err != nil {
		return model.Routine{}, err
	}

	weekdays := input.Weekdays
	if kind == model.RepeatDaily {
		weekdays = nil
	}

	stored, err := s.cipher.Encrypt(input.Text, userID)
	if err != nil {
		return model.Routine{}, fmt.Errorf("failed to encrypt routine text: %w", err)
	}

	routine := model.Routine{
		UserID:   userID,
		Text:     stored,
		Repeat:   kind,
		Weekdays: weekdays,
	}

	created, err := s.repo.Create(ctx, routine)
	if err != nil {
		return model.Routine{}, fmt.Errorf("failed to create routine: %w", err)
	}

	created.Text = input.Text
	return created, nil
}

func (s *RoutineService) GetByID(ctx context.Context, userID, routineID string) (model.Routine, error) {
	routine, err := s.repo.GetByID(ctx, userID, routineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Routine{}, ErrNotFound
		}
		return model.Routine{}, fmt.Errorf("failed to get routine: %w", err)
	}
	return s.decrypt(routine, userID)
}

func (s *RoutineService) Update(ctx context.Context, userID, routineID string, input UpdateRoutineInput) (model.Routine, error) {
	existing, err := s.repo.GetByID(ctx, userID, routineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Routine{}, ErrNotFound
		}
		return model.Routine{}, fmt.Errorf("failed to get routine for update: %w", err)
	}

	plain := ""
	if input.Text != nil {
		if *input.Text == "" {
			return model.Routine{}, fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
		}
		plain = *input.Text
		stored, err := s.cipher.Encrypt(plain, userID)
		if err != nil {
			return model.Routine{}, fmt.Errorf("failed to encrypt routine text: %w", err)
		}
		existing.Text = stored
	}
	if input.Repeat != nil {
		existing.Repeat = model.RepeatKind(*input.Repeat)
	}
	if input.Weekdays != nil {
		existing.Weekdays = *input.Weekdays
	}
	if existing.Repeat == model.RepeatDaily {
		existing.Weekdays = nil
	}

	if err := validateRepeat(existing.Repeat, existing.Weekdays); err != nil {
		return model.Routine{}, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return model.Routine{}, fmt.Errorf("failed to update routine: %w", err)
	}

	if input.Text != nil {
		updated.Text = plain
		return updated, nil
	}
	return s.decrypt(updated, userID)
}

func (s *RoutineService) Delete(ctx context.Context, userID, routineID string) error {
	err := s.repo.Delete(ctx, userID, routineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return nil
}

func (s *RoutineService) List(ctx context.Context, userID string) ([]model.Routine, error) {
	routines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	for i := range routines {
		routines[i], err = s.decrypt(routines[i], userID)
		if err != nil {
			return nil, err
		}
	}
	return routines, nil
}

func (s *RoutineService) decrypt(routine model.Routine, userID string) (model.Routine, error) {
	plain, err := s.cipher.Decrypt(routine.Text, userID)
	if err != nil {
		return model.Routine{}, fmt.Errorf("failed to decrypt routine text: %w", err)
	}
	routine.Text = plain
	return routine, nil
}
