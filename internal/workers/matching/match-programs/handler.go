// internal/workers/matching/match-programs/handler.go
package matchprograms

import (
	"context"
	"encoding/json"
	"time"

	stderrors "govmatch/internal/common/errors"
	"govmatch/internal/common/logger"
	"govmatch/internal/common/metrics"
	"govmatch/internal/matching/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "match-programs"
)

type Handler struct {
	config   *Config
	pipeline *pipeline.Pipeline
	logger   logger.Logger
}

func NewHandler(config *Config, p *pipeline.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		pipeline: p,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle runs the matching pipeline for one job. Pipeline failures complete
// the job with MatchingSuccess false so the process can branch on it; only
// unparseable input throws a BPMN error.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, stderrors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	result := h.pipeline.Match(ctx, &input.Profile)
	return &Output{
		MatchingSuccess: result.Success,
		MatchingMessage: result.Message,
		MatchingResult:  result.Data,
	}
}

// Execute runs the matching logic directly, outside a Zeebe job.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *stderrors.StandardError) {
	bpmnErr := stderrors.ConvertToBPMNError(stdErr)
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.ErrorMessage()).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
