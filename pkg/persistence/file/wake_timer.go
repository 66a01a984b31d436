package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

// WakeTimerRepository handles wake timer file operations.
type WakeTimerRepository struct {
	root string
}

// NewWakeTimerRepository creates a new wake timer repository.
func NewWakeTimerRepository(root string) *WakeTimerRepository {
	return &WakeTimerRepository{root: root}
}

func (wtr *WakeTimerRepository) dir() string {
	return filepath.Join(wtr.root, "wake_timers")
}

// SaveWakeTimer saves a wake timer to the file system.
func (wtr *WakeTimerRepository) SaveWakeTimer(_ context.Context, timer *models.WakeTimer) error {
	if err := timer.Validate(); err != nil {
		return persistence.NewWakeTimerError("Save", timer.ID, err)
	}

	err := os.MkdirAll(wtr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create wake timers directory: %w", err)
	}

	data, err := json.Marshal(timer)
	if err != nil {
		return fmt.Errorf("failed to marshal wake timer %s: %w", timer.ID, err)
	}

	filePath := filepath.Join(wtr.dir(), timer.ID+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write wake timer %s: %w", timer.ID, err)
	}

	return nil
}

// GetWakeTimer retrieves a wake timer by its ID.
func (wtr *WakeTimerRepository) GetWakeTimer(_ context.Context, timerID string) (*models.WakeTimer, error) {
	filePath := filepath.Clean(filepath.Join(wtr.dir(), timerID+".json"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWakeTimerError("Get", timerID, persistence.ErrWakeTimerNotFound)
		}

		return nil, fmt.Errorf("failed to read wake timer %s: %w", timerID, err)
	}

	var timer models.WakeTimer

	err = json.Unmarshal(data, &timer)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal wake timer %s: %w", timerID, err)
	}

	return &timer, nil
}

// DueWakeTimers returns active timers whose resume time has passed, ordered by
// resume time ascending.
func (wtr *WakeTimerRepository) DueWakeTimers(ctx context.Context, now time.Time) ([]*models.WakeTimer, error) {
	if _, err := os.Stat(wtr.dir()); os.IsNotExist(err) {
		return []*models.WakeTimer{}, nil
	}

	entries, err := os.ReadDir(wtr.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to read wake timers directory: %w", err)
	}

	var due []*models.WakeTimer

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		timerID := strings.TrimSuffix(entry.Name(), ".json")

		timer, err := wtr.GetWakeTimer(ctx, timerID)
		if err != nil {
			continue
		}

		if timer.IsDue(now) {
			due = append(due, timer)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ResumeAt.Before(due[j].ResumeAt)
	})

	return due, nil
}

// DeactivateWakeTimer marks a timer as fired so it is not picked up again.
func (wtr *WakeTimerRepository) DeactivateWakeTimer(ctx context.Context, timerID string) error {
	timer, err := wtr.GetWakeTimer(ctx, timerID)
	if err != nil {
		return err
	}

	timer.Fire()

	return wtr.SaveWakeTimer(ctx, timer)
}

// DeleteWakeTimersByExecution removes all timers belonging to an execution.
func (wtr *WakeTimerRepository) DeleteWakeTimersByExecution(ctx context.Context, executionID string) error {
	if _, err := os.Stat(wtr.dir()); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(wtr.dir())
	if err != nil {
		return fmt.Errorf("failed to read wake timers directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		timerID := strings.TrimSuffix(entry.Name(), ".json")

		timer, err := wtr.GetWakeTimer(ctx, timerID)
		if err != nil {
			continue
		}

		if timer.ExecutionID != executionID {
			continue
		}

		if err := os.Remove(filepath.Join(wtr.dir(), entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete wake timer %s: %w", timerID, err)
		}
	}

	return nil
}
