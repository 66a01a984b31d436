package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

// WakeTimerRepository handles wake timer database operations.
type WakeTimerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWakeTimerRepository creates a new wake timer repository.
func NewWakeTimerRepository(db *sql.DB, logger *slog.Logger) *WakeTimerRepository {
	return &WakeTimerRepository{db: db, logger: logger}
}

const wakeTimerColumns = `
	id
  , execution_id
  , workflow_id
  , node_id
  , resume_at
  , active
  , created_at
  , updated_at
`

// SaveWakeTimer upserts a wake timer.
func (r *WakeTimerRepository) SaveWakeTimer(ctx context.Context, timer *models.WakeTimer) error {
	if err := timer.Validate(); err != nil {
		return persistence.NewWakeTimerError("Save", timer.ID, err)
	}

	query := `
		INSERT INTO wake_timers (
			id, execution_id, workflow_id, node_id, resume_at, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			resume_at = EXCLUDED.resume_at,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		timer.ID, timer.ExecutionID, timer.WorkflowID, timer.NodeID,
		timer.ResumeAt, timer.Active, timer.CreatedAt, timer.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWakeTimerError("Save", timer.ID, err)
	}

	return nil
}

// GetWakeTimer retrieves a wake timer by its ID.
func (r *WakeTimerRepository) GetWakeTimer(ctx context.Context, timerID string) (*models.WakeTimer, error) {
	query := "SELECT " + wakeTimerColumns + " FROM wake_timers WHERE id = $1"

	timer, err := r.scanWakeTimer(r.db.QueryRowContext(ctx, query, timerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWakeTimerError("Get", timerID, persistence.ErrWakeTimerNotFound)
		}

		return nil, fmt.Errorf("failed to scan wake timer: %w", err)
	}

	return timer, nil
}

// DueWakeTimers returns active timers whose resume time has passed, ordered by
// resume time ascending.
func (r *WakeTimerRepository) DueWakeTimers(ctx context.Context, now time.Time) ([]*models.WakeTimer, error) {
	query := "SELECT " + wakeTimerColumns + " FROM wake_timers WHERE active AND resume_at <= $1 ORDER BY resume_at"

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due wake timers: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	timers := make([]*models.WakeTimer, 0)

	for rows.Next() {
		timer, err := r.scanWakeTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wake timer: %w", err)
		}

		timers = append(timers, timer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wake timers: %w", err)
	}

	return timers, nil
}

// DeactivateWakeTimer marks a timer as fired so it is not picked up again.
func (r *WakeTimerRepository) DeactivateWakeTimer(ctx context.Context, timerID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE wake_timers SET active = false, updated_at = NOW() WHERE id = $1", timerID)
	if err != nil {
		return persistence.NewWakeTimerError("Deactivate", timerID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWakeTimerError("Deactivate", timerID, err)
	}

	if affected == 0 {
		return persistence.NewWakeTimerError("Deactivate", timerID, persistence.ErrWakeTimerNotFound)
	}

	return nil
}

// DeleteWakeTimersByExecution removes all timers belonging to an execution.
func (r *WakeTimerRepository) DeleteWakeTimersByExecution(ctx context.Context, executionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM wake_timers WHERE execution_id = $1", executionID)
	if err != nil {
		return fmt.Errorf("failed to delete wake timers for execution %s: %w", executionID, err)
	}

	return nil
}

func (r *WakeTimerRepository) scanWakeTimer(scanner interface{ Scan(dest ...any) error }) (*models.WakeTimer, error) {
	var timer models.WakeTimer

	err := scanner.Scan(
		&timer.ID, &timer.ExecutionID, &timer.WorkflowID, &timer.NodeID,
		&timer.ResumeAt, &timer.Active, &timer.CreatedAt, &timer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &timer, nil
}
