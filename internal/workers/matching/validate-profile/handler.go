// internal/workers/matching/validate-profile/handler.go
package validateprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stderrors "govmatch/internal/common/errors"
	"govmatch/internal/common/logger"
	"govmatch/internal/common/metrics"
	"govmatch/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-profile"
)

type Handler struct {
	config    *Config
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	validator, err := validation.NewValidator(profileSchema)
	if err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}
	return &Handler{
		config:    config,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Handle validates the inbound profile. A well-formed but invalid profile
// throws VALIDATION_FAILED so the process can route to a correction step.
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

	output := h.execute(&input)

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	if !output.ProfileValid {
		result := &validation.ValidationResult{Valid: false, Errors: output.ValidationErrors}
		h.failJob(client, job, stderrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(input *Input) *Output {
	result := h.validator.Validate(input.Profile)
	if !result.Valid {
		h.logger.Warn("profile rejected", map[string]interface{}{
			"errorCount": len(result.Errors),
		})
		return &Output{ProfileValid: false, ValidationErrors: result.Errors}
	}
	return &Output{ProfileValid: true}
}

// Execute runs the validation directly, outside a Zeebe job.
func (h *Handler) Execute(_ context.Context, input *Input) *Output {
	return h.execute(input)
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
