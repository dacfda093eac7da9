// internal/workers/lifecycle/end-match/handler.go
package endmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/metrics"
	"foundingcircle-workers/internal/matchengine/lifecycle"
	"foundingcircle-workers/internal/models"
	"foundingcircle-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "end-match"
)

type Handler struct {
	config  *Config
	matches *repository.MatchRepository
	logger  logger.Logger
	errors  *commonerrors.ErrorHandler
}

func NewHandler(config *Config, matches *repository.MatchRepository, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		matches: matches,
		logger:  scoped,
		errors:  commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job,
			commonerrors.NewMatchValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MatchID == "" {
		return nil, commonerrors.NewMatchValidationFailedError("matchId is required")
	}

	var change *models.StatusChange
	saved, err := h.matches.Update(ctx, input.MatchID, TaskType, func(m models.Match) (models.Match, error) {
		var next models.Match
		var err error
		next, change, err = lifecycle.Apply(m, lifecycle.Ended{
			Outcome: models.MatchOutcome(input.Outcome),
			Actor:   input.Actor,
			Reason:  input.Reason,
		}, time.Now().UTC())
		return next, err
	})
	if err != nil {
		return nil, err
	}
	if change != nil {
		metrics.MatchStatusTransitions.WithLabelValues(string(change.Status)).Inc()
	}

	h.logger.Info("match ended", map[string]interface{}{
		"matchId": saved.ID,
		"outcome": string(saved.Outcome),
	})

	return &Output{
		MatchID:      saved.ID,
		MatchStatus:  string(saved.Status),
		MatchOutcome: string(saved.Outcome),
		CompletedAt:  saved.CompletedAt.Format(time.RFC3339),
	}, nil
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func errorCode(err error) string {
	if stdErr, ok := err.(*commonerrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
