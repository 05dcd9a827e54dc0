package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RibertaGames/routine-todo-api/internal/model"
)

// MemoryTaskRepository is an in-memory TaskRepository for running without a
// database (dev mode) and for deterministic tests. Rows are still scoped by
// user ID exactly like the Postgres implementation.
type MemoryTaskRepository struct {
	mu    sync.Mutex
	tasks map[string]model.Task
}

func NewMemoryTask() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]model.Task)}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = uuid.New().String()
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, userID, taskID string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return model.Task{}, sql.ErrNoRows
	}
	return task, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return model.Task{}, sql.ErrNoRows
	}
	existing.Text = task.Text
	existing.Done = task.Done
	existing.ScheduledDate = task.ScheduledDate
	existing.UpdatedAt = time.Now()
	r.tasks[task.ID] = existing
	return existing, nil
}

func (r *MemoryTaskRepository) SetDone(_ context.Context, userID, taskID string, done bool) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return model.Task{}, sql.ErrNoRows
	}
	task.Done = done
	task.UpdatedAt = time.Now()
	r.tasks[taskID] = task
	return task, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *MemoryTaskRepository) List(_ context.Context, params model.TaskListParams) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := []model.Task{}
	for _, task := range r.tasks {
		if task.UserID != params.UserID {
			continue
		}
		if params.Done != nil && task.Done != *params.Done {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// MemoryRoutineRepository is the in-memory counterpart of
// PostgresRoutineRepository.
type MemoryRoutineRepository struct {
	mu       sync.Mutex
	routines map[string]model.Routine
}

func NewMemoryRoutine() *MemoryRoutineRepository {
	return &MemoryRoutineRepository{routines: make(map[string]model.Routine)}
}

func (r *MemoryRoutineRepository) Create(_ context.Context, routine model.Routine) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine.ID = uuid.New().String()
	now := time.Now()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	r.routines[routine.ID] = routine
	return routine, nil
}

func (r *MemoryRoutineRepository) GetByID(_ context.Context, userID, routineID string) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[routineID]
	if !ok || routine.UserID != userID {
		return model.Routine{}, sql.ErrNoRows
	}
	return routine, nil
}

func (r *MemoryRoutineRepository) Update(_ context.Context, routine model.Routine) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.routines[routine.ID]
	if !ok || existing.UserID != routine.UserID {
		return model.Routine{}, sql.ErrNoRows
	}
	existing.Text = routine.Text
	existing.Repeat = routine.Repeat
	existing.Weekdays = routine.Weekdays
	existing.UpdatedAt = time.Now()
	r.routines[routine.ID] = existing
	return existing, nil
}

func (r *MemoryRoutineRepository) Delete(_ context.Context, userID, routineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[routineID]
	if !ok || routine.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.routines, routineID)
	return nil
}

func (r *MemoryRoutineRepository) ListByUser(_ context.Context, userID string) ([]model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routines := []model.Routine{}
	for _, routine := range r.routines {
		if routine.UserID == userID {
			routines = append(routines, routine)
		}
	}
	sort.Slice(routines, func(i, j int) bool {
		if routines[i].CreatedAt.Equal(routines[j].CreatedAt) {
			return routines[i].ID < routines[j].ID
		}
		return routines[i].CreatedAt.Before(routines[j].CreatedAt)
	})
	return routines, nil
}

func (r *MemoryRoutineRepository) MarkMaterialized(_ context.Context, userID, routineID string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[routineID]
	if !ok || routine.UserID != userID {
		return false, nil
	}
	date := model.DateOf(day)
	if routine.LastMaterialized != nil && routine.LastMaterialized.Equal(date) {
		return false, nil
	}
	routine.LastMaterialized = &date
	routine.UpdatedAt = time.Now()
	r.routines[routineID] = routine
	return true, nil
}

var (
	_ TaskRepository    = (*MemoryTaskRepository)(nil)
	_ RoutineRepository = (*MemoryRoutineRepository)(nil)
)
