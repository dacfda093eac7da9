// internal/workers/matching/create-match-record/handler.go
package creatematchrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/metrics"
	"foundingcircle-workers/internal/common/validation"
	"foundingcircle-workers/internal/matchengine/lifecycle"
	"foundingcircle-workers/internal/matchengine/scoring"
	"foundingcircle-workers/internal/models"
	"foundingcircle-workers/internal/repository"
	"foundingcircle-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-match-record"
)

type Handler struct {
	config      *Config
	matches     *repository.MatchRepository
	inputSchema map[string]interface{}
	logger      logger.Logger
	errors      *commonerrors.ErrorHandler
}

// NewHandler wires the worker. reg may be nil; without a registry entry the
// structural schema check is skipped and only semantic validation runs.
func NewHandler(config *Config, matches *repository.MatchRepository, reg *registry.ActivityRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})

	var schema map[string]interface{}
	if reg != nil {
		if activity, ok := reg.FindByTaskType(TaskType); ok {
			schema = activity.InputSchema
		}
	}

	return &Handler{
		config:      config,
		matches:     matches,
		inputSchema: schema,
		logger:      scoped,
		errors:      commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if h.inputSchema != nil {
		result, err := validation.ValidateRawInput([]byte(job.Variables), h.inputSchema)
		if err == nil && !result.Valid {
			h.errors.HandleJobError(context.Background(), client, job,
				commonerrors.NewMatchValidationFailedError(validation.FormatErrors(result)))
			return
		}
	}

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
	if err := validatePair(input.BuilderInterest, input.FounderInterest); err != nil {
		return nil, err
	}
	if input.CompatibilityScore < 0 || input.CompatibilityScore > 100 {
		return nil, commonerrors.NewMatchValidationFailedError(
			fmt.Sprintf("compatibilityScore out of range: %d", input.CompatibilityScore))
	}

	now := time.Now().UTC()
	match := lifecycle.NewMatch(
		uuid.New().String(),
		lifecycle.MutualInterests{
			BuilderInterest: input.BuilderInterest,
			FounderInterest: input.FounderInterest,
		},
		scoring.Result{
			Score:     input.CompatibilityScore,
			Breakdown: input.CompatibilityBreakdown,
		},
		now,
	)
	match.Annotations = input.Annotations

	if err := h.matches.Create(ctx, match); err != nil {
		return nil, err
	}

	metrics.MatchStatusTransitions.WithLabelValues(string(models.StatusActive)).Inc()
	h.logger.Info("match record created", map[string]interface{}{
		"matchId":            match.ID,
		"builderUserId":      match.BuilderUserID,
		"founderUserId":      match.FounderUserID,
		"openingId":          match.OpeningID,
		"compatibilityScore": match.CompatibilityScore,
	})

	return &Output{
		MatchID:            match.ID,
		MatchStatus:        string(match.Status),
		CompatibilityScore: match.CompatibilityScore,
		MatchedAt:          now.Format(time.RFC3339),
	}, nil
}

// validatePair checks that the two interests really are a mutual pair over the
// same builder, founder, and opening, one per direction.
func validatePair(builder, founder models.Interest) error {
	if builder.Direction != models.InterestBuilderToOpening {
		return commonerrors.NewMatchValidationFailedError(
			fmt.Sprintf("builderInterest has direction %q", builder.Direction))
	}
	if founder.Direction != models.InterestFounderToBuilder {
		return commonerrors.NewMatchValidationFailedError(
			fmt.Sprintf("founderInterest has direction %q", founder.Direction))
	}
	if builder.BuilderUserID == "" || builder.FounderUserID == "" || builder.OpeningID == "" {
		return commonerrors.NewMatchValidationFailedError("builderInterest is missing participant ids")
	}
	if builder.BuilderUserID != founder.BuilderUserID ||
		builder.FounderUserID != founder.FounderUserID ||
		builder.OpeningID != founder.OpeningID {
		return commonerrors.NewMatchValidationFailedError("interests do not reference the same builder, founder, and opening")
	}
	return nil
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
