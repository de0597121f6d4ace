package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"storefront_pay/internal/models"
)

const (
	RunStatusSuccess         = "success"
	RunStatusFailure         = "failure"
	RunStatusHandlerNotFound = "handler_not_found"
)

// Runner executes registered tasks and keeps a JobRun row for every execution
type Runner struct {
	db       *gorm.DB
	registry *Registry
	logger   *slog.Logger
}

func NewRunner(db *gorm.DB, registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, registry: registry, logger: logger}
}

// Run executes one task. A task failure is recorded in the returned JobRun; the error is
// only set when the run itself could not be recorded.
func (r *Runner) Run(ctx context.Context, taskName string, args map[string]interface{}) (*models.JobRun, error) {
	run := &models.JobRun{TaskName: taskName, RunAt: time.Now().UTC()}

	handler, found := r.registry.Get(taskName)
	if !found {
		r.logger.Error("task handler not found", "task", taskName)
		run.Status = RunStatusHandlerNotFound
		run.Result = map[string]interface{}{"error": "Handler not found"}
		return run, r.record(ctx, run)
	}

	if args == nil {
		args = make(map[string]interface{})
	}

	start := time.Now()
	result, err := handler(ctx, args)
	run.Runtime = int(time.Since(start).Milliseconds())

	if err != nil {
		run.Status = RunStatusFailure
		run.Result = map[string]interface{}{"error": err.Error()}
		r.logger.Error("task failed", "task", taskName, "error", err)
	} else {
		run.Status = RunStatusSuccess
		run.Result = result
		r.logger.Info("task completed", "task", taskName, "runtime_ms", run.Runtime)
	}
	return run, r.record(ctx, run)
}

func (r *Runner) record(ctx context.Context, run *models.JobRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record run of %s: %w", run.TaskName, err)
	}
	return nil
}

// RunAll executes every given task in order, stopping early only when ctx is done
func (r *Runner) RunAll(ctx context.Context, taskNames []string) []*models.JobRun {
	runs := make([]*models.JobRun, 0, len(taskNames))
	for _, name := range taskNames {
		if ctx.Err() != nil {
			break
		}
		run, err := r.Run(ctx, name, nil)
		if err != nil {
			r.logger.Error("failed to record task run", "task", name, "error", err)
		}
		runs = append(runs, run)
	}
	return runs
}
