package repository

import (
	"context"
	"time"

	"github.com/RibertaGames/routine-todo-api/internal/model"
)

type RoutineRepository interface {
	Create(ctx context.Context, routine model.Routine) (model.Routine, error)
	GetByID(ctx context.Context, userID, routineID string) (model.Routine, error)
	Update(ctx context.Context, routine model.Routine) (model.Routine, error)
	Delete(ctx context.Context, userID, routineID string) error
	ListByUser(ctx context.Context, userID string) ([]model.Routine, error)
	// MarkMaterialized sets last_materialized to day unless it is already
	// day. Returns false when the marker was already set, which means a
	// concurrent run materialized this routine first.
	MarkMaterialized(ctx context.Context, userID, routineID string, day time.Time) (bool, error)
}
