package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/service"
)

func TestUserService_Me(t *testing.T) {
	tests := []struct {
		name    string
		repo    *mockUserRepo
		wantErr error
	}{
		{
			name: "found",
			repo: &mockUserRepo{
				getByIDFn: func(ctx context.Context, id string) (model.User, error) {
					return model.User{ID: id, Email: "a@example.com"}, nil
				},
			},
		},
		{
			name: "missing user maps to not found",
			repo: &mockUserRepo{
				getByIDFn: func(ctx context.Context, id string) (model.User, error) {
					return model.User{}, sql.ErrNoRows
				},
			},
			wantErr: service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewUserService(tt.repo)

			user, err := svc.Me(context.Background(), "user-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID != "user-1" {
				t.Errorf("id: got %q", user.ID)
			}
		})
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	nickname := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   service.UpdateProfileInput
		wantErr error
		want    string
	}{
		{
			name:  "set nickname",
			input: service.UpdateProfileInput{Nickname: nickname("Alex")},
			want:  "Alex",
		},
		{
			name:  "nil nickname keeps current",
			input: service.UpdateProfileInput{},
			want:  "old",
		},
		{
			name:    "empty nickname rejected",
			input:   service.UpdateProfileInput{Nickname: nickname("")},
			wantErr: service.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updatedWith model.User
			repo := &mockUserRepo{
				getByIDFn: func(ctx context.Context, id string) (model.User, error) {
					return model.User{ID: id, Nickname: "old"}, nil
				},
				updateFn: func(ctx context.Context, user model.User) (model.User, error) {
					updatedWith = user
					return user, nil
				},
			}
			svc := service.NewUserService(repo)

			user, err := svc.UpdateProfile(context.Background(), "user-1", tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Nickname != tt.want {
				t.Errorf("nickname: got %q, want %q", user.Nickname, tt.want)
			}
			if updatedWith.Nickname != tt.want {
				t.Errorf("persisted nickname: got %q, want %q", updatedWith.Nickname, tt.want)
			}
		})
	}
}
