package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RibertaGames/routine-todo-api/internal/model"
)

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTask(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	query := `
		INSERT INTO tasks (user_id, text, done, from_routine, scheduled_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, text, done, from_routine, scheduled_date, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		task.UserID, task.Text, task.Done, task.FromRoutine, task.ScheduledDate,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	query := `
		SELECT id, user_id, text, done, from_routine, scheduled_date, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, taskID, userID)
	return scanTask(row)
}

func (r *PostgresTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	query := `
		UPDATE tasks
		SET text = $1, done = $2, scheduled_date = $3, updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, text, done, from_routine, scheduled_date, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		task.Text, task.Done, task.ScheduledDate, task.ID, task.UserID,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) SetDone(ctx context.Context, userID, taskID string, done bool) (model.Task, error) {
	query := `
		UPDATE tasks
		SET done = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, text, done, from_routine, scheduled_date, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, done, taskID, userID)
	return scanTask(row)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *PostgresTaskRepository) List(ctx context.Context, params model.TaskListParams) ([]model.Task, error) {
	args := []any{params.UserID}

	query := `
		SELECT id, user_id, text, done, from_routine, scheduled_date, created_at, updated_at
		FROM tasks
		WHERE user_id = $1`

	if params.Done != nil {
		query += " AND done = $2"
		args = append(args, *params.Done)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Text, &t.Done,
		&t.FromRoutine, &t.ScheduledDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	return t, nil
}

// ensure compile-time interface compliance
var _ TaskRepository = (*PostgresTaskRepository)(nil)
