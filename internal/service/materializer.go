package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RibertaGames/routine-todo-api/internal/crypto"
	"github.com/RibertaGames/routine-todo-api/internal/model"
	"github.com/RibertaGames/routine-todo-api/internal/repository"
)

// MaterializerMetrics counts materialization outcomes.
type MaterializerMetrics struct {
	Spawned  prometheus.Counter
	Failures prometheus.Counter
}

func NewMaterializerMetrics(reg prometheus.Registerer) *MaterializerMetrics {
	m := &MaterializerMetrics{
		Spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routine_tasks_spawned_total",
			Help: "Tasks created from routine definitions",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routine_materialize_failures_total",
			Help: "Per-routine materialization failures",
		}),
	}
	reg.MustRegister(m.Spawned, m.Failures)
	return m
}

// Materializer turns due routine definitions into concrete tasks, at most
// one per definition per calendar day.
type Materializer struct {
	routines repository.RoutineRepository
	tasks    repository.TaskRepository
	cipher   crypto.Cipher
	logger   *slog.Logger
	metrics  *MaterializerMetrics
}

func NewMaterializer(
	routines repository.RoutineRepository,
	tasks repository.TaskRepository,
	cipher crypto.Cipher,
	logger *slog.Logger,
	metrics *MaterializerMetrics,
) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		routines: routines,
		tasks:    tasks,
		cipher:   cipher,
		logger:   logger,
		metrics:  metrics,
	}
}

// MaterializeDueRoutines creates a task for every routine of the owner that
// is due on today's date and has not already spawned one today, and returns
// the newly created tasks with text decrypted for display.
//
// Failure handling: if the definition list cannot be read, nothing is
// created and the error is returned (fail-closed). A failure while
// processing one definition is logged and skipped without touching its
// marker; the remaining definitions still run. Task insert and marker
// update are two separate writes — if the marker write fails after the
// insert succeeded, the routine may spawn a duplicate on the next run
// (at-least-once). The marker write itself is conditional, so overlapping
// runs cannot both move it.
func (m *Materializer) MaterializeDueRoutines(ctx context.Context, today time.Time, userID string) ([]model.Task, error) {
	routines, err := m.routines.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}

	day := model.DateOf(today)
	created := []model.Task{}

	for _, routine := range routines {
		if !routine.DueOn(day) || routine.MaterializedOn(day) {
			continue
		}

		// Text is copied in its stored form; routine and task rows share
		// the owner's key, so no decrypt/re-encrypt is needed here.
		task := model.Task{
			UserID:        userID,
			Text:          routine.Text,
			Done:          false,
			FromRoutine:   true,
			ScheduledDate: day,
		}

		inserted, err := m.tasks.Create(ctx, task)
		if err != nil {
			m.countFailure()
			m.logger.Warn("failed to spawn task from routine",
				"routine_id", routine.ID,
				"error", err,
			)
			continue
		}

		marked, err := m.routines.MarkMaterialized(ctx, userID, routine.ID, day)
		if err != nil {
			// The task exists but the marker did not move: the next run may
			// spawn a duplicate.
			m.countFailure()
			m.logger.Warn("failed to update routine marker after spawning task",
				"routine_id", routine.ID,
				"task_id", inserted.ID,
				"error", err,
			)
		} else if !marked {
			m.logger.Debug("routine marker already set by a concurrent run",
				"routine_id", routine.ID,
			)
		}

		plain, err := m.cipher.Decrypt(inserted.Text, userID)
		if err != nil {
			m.logger.Warn("failed to decrypt spawned task text",
				"task_id", inserted.ID,
				"error", err,
			)
			continue
		}
		inserted.Text = plain

		m.countSpawned()
		created = append(created, inserted)
	}

	return created, nil
}

func (m *Materializer) countSpawned() {
	if m.metrics != nil {
		m.metrics.Spawned.Inc()
	}
}

func (m *Materializer) countFailure() {
	if m.metrics != nil {
		m.metrics.Failures.Inc()
	}
}
