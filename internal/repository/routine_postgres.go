package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/RibertaGames/routine-todo-api/internal/model"
)

type PostgresRoutineRepository struct {
	db *sql.DB
}

func NewPostgresRoutine(db *sql.DB) *PostgresRoutineRepository {
	return &PostgresRoutineRepository{db: db}
}

func (r *PostgresRoutineRepository) Create(ctx context.Context, routine model.Routine) (model.Routine, error) {
	query := `
		INSERT INTO routines (user_id, text, repeat_kind, weekdays)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, text, repeat_kind, weekdays, last_materialized, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		routine.UserID, routine.Text, routine.Repeat, weekdaysArray(routine.Weekdays),
	)

	return scanRoutine(row)
}

func (r *PostgresRoutineRepository) GetByID(ctx context.Context, userID, routineID string) (model.Routine, error) {
	query := `
		SELECT id, user_id, text, repeat_kind, weekdays, last_materialized, created_at, updated_at
		FROM routines
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, routineID, userID)
	return scanRoutine(row)
}

func (r *PostgresRoutineRepository) Update(ctx context.Context, routine model.Routine) (model.Routine, error) {
	query := `
		UPDATE routines
		SET text = $1, repeat_kind = $2, weekdays = $3, updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, text, repeat_kind, weekdays, last_materialized, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		routine.Text, routine.Repeat, weekdaysArray(routine.Weekdays), routine.ID, routine.UserID,
	)

	return scanRoutine(row)
}

func (r *PostgresRoutineRepository) Delete(ctx context.Context, userID, routineID string) error {
	query := `DELETE FROM routines WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, routineID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
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

func (r *PostgresRoutineRepository) ListByUser(ctx context.Context, userID string) ([]model.Routine, error) {
	query := `
		SELECT id, user_id, text, repeat_kind, weekdays, last_materialized, created_at, updated_at
		FROM routines
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	defer rows.Close()

	routines := []model.Routine{}
	for rows.Next() {
		routine, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}

	return routines, nil
}

// MarkMaterialized is the serialization point for overlapping materialization
// runs: the update only lands while the marker is not yet today, so exactly
// one of two concurrent runs observes rows=1.
func (r *PostgresRoutineRepository) MarkMaterialized(ctx context.Context, userID, routineID string, day time.Time) (bool, error) {
	query := `
		UPDATE routines
		SET last_materialized = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
		  AND (last_materialized IS NULL OR last_materialized <> $1)`

	result, err := r.db.ExecContext(ctx, query, model.DateOf(day), routineID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark routine materialized: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func weekdaysArray(days []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(days))
	for i, d := range days {
		arr[i] = int64(d)
	}
	return arr
}

func scanRoutine(row scannable) (model.Routine, error) {
	var (
		r        model.Routine
		weekdays pq.Int64Array
		last     sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.Text, &r.Repeat,
		&weekdays, &last, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return model.Routine{}, fmt.Errorf("failed to scan routine: %w", err)
	}
	if len(weekdays) > 0 {
		r.Weekdays = make([]int, len(weekdays))
		for i, d := range weekdays {
			r.Weekdays[i] = int(d)
		}
	}
	if last.Valid {
		r.LastMaterialized = &last.Time
	}
	return r, nil
}

var _ RoutineRepository = (*PostgresRoutineRepository)(nil)
