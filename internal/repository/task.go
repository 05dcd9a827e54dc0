package repository

import (
	"context"

	"github.com/RibertaGames/routine-todo-api/internal/model"
)

type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (model.Task, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	SetDone(ctx context.Context, userID, taskID string, done bool) (model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	List(ctx context.Context, params model.TaskListParams) ([]model.Task, error)
}
