// internal/common/camunda/worker.go
package camunda

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"govmatch/internal/common/logger"
)

// JobHandler is implemented by every worker handler in this service.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Worker owns one open Zeebe job subscription.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job subscription for taskType routed to the handler.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	handler JobHandler,
	log logger.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Open()

	log.Info("worker registered", map[string]interface{}{
		"task_type":       taskType,
		"max_jobs_active": maxJobsActive,
	})

	return &Worker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// Stop closes the job subscription and waits for in-flight jobs.
func (w *Worker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", map[string]interface{}{"task_type": w.taskType})

	done := make(chan struct{})
	go func() {
		w.worker.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out", map[string]interface{}{"task_type": w.taskType})
	}
}
