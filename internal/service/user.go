package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/repository"
)

type UpdateProfileInput struct {
	Nickname *string
}

// UserService owns profile reads and updates.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (model.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if input.Nickname != nil {
		if *input.Nickname == "" {
			return model.User{}, fmt.Errorf("%w: nickname cannot be empty", ErrInvalidInput)
		}
		user.Nickname = *input.Nickname
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}
