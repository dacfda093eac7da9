// internal/workers/matching/calculate-compatibility-score/handler.go
package calculatecompatibilityscore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/metrics"
	"foundingcircle-workers/internal/matchengine/scenario"
	"foundingcircle-workers/internal/matchengine/scoring"
	"foundingcircle-workers/internal/models"
	"foundingcircle-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-compatibility-score"

	// Fallback fit when one side gave us nothing to compare against.
	neutralFit = 50
)

type Handler struct {
	config    *Config
	scenarios *repository.ScenarioStore
	logger    logger.Logger
	errors    *commonerrors.ErrorHandler
}

func NewHandler(config *Config, scenarios *repository.ScenarioStore, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		scenarios: scenarios,
		logger:    scoped,
		errors:    commonerrors.NewErrorHandler(scoped),
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
	if input.FounderUserID == "" || input.BuilderUserID == "" {
		return nil, commonerrors.NewMatchValidationFailedError("founderUserId and builderUserId are required")
	}

	subs := scoring.SubScores{
		Skills:       h.calculateSkillsFit(input.Founder.RequiredSkills, input.Builder.Skills),
		Compensation: h.calculateCompensationFit(input.Founder.CompensationMin, input.Founder.CompensationMax, input.Builder.CompensationMin),
		Commitment:   h.calculateCommitmentFit(input.Founder.HoursPerWeek, input.Builder.HoursPerWeek),
		Stage:        h.calculateStageFit(input.Founder.Stage, input.Builder.PreferredStages),
		Location:     h.calculateLocationFit(&input.Founder, &input.Builder),
	}

	scenarioResult := h.compareScenarios(ctx, input.FounderUserID, input.BuilderUserID)
	subs.Scenario = scenarioResult.Score

	result := scoring.Combine(subs)

	h.logger.Info("compatibility score calculated", map[string]interface{}{
		"founderUserId":    input.FounderUserID,
		"builderUserId":    input.BuilderUserID,
		"openingId":        input.OpeningID,
		"score":            result.Score,
		"scenarioAssessed": scenarioResult.Assessed,
	})

	return &Output{
		CompatibilityScore:     result.Score,
		CompatibilityBreakdown: result.Breakdown,
		ScenarioAssessed:       scenarioResult.Assessed,
		AppliedWeights:         result.AppliedWeights,
		CalculatedAt:           time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// compareScenarios loads both parties' scenario responses and scores them.
// A missing or incomplete response on either side yields an unassessed result;
// the scoring layer redistributes the weight instead of punishing a zero.
func (h *Handler) compareScenarios(ctx context.Context, founderUserID, builderUserID string) scenario.Result {
	founder := h.loadScenarioResponse(ctx, founderUserID)
	builder := h.loadScenarioResponse(ctx, builderUserID)
	return scenario.Compare(founder, builder)
}

func (h *Handler) loadScenarioResponse(ctx context.Context, userID string) *models.ScenarioResponse {
	resp, err := h.scenarios.GetByUser(ctx, userID)
	if err != nil {
		stdErr, ok := err.(*commonerrors.StandardError)
		if !ok || stdErr.Code != commonerrors.ErrCodeScenarioResponseNotFound {
			h.logger.Warn("scenario response lookup failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		return nil
	}
	return resp
}

func (h *Handler) calculateSkillsFit(required, offered []string) int {
	if len(required) == 0 {
		return neutralFit
	}

	have := make(map[string]bool, len(offered))
	for _, s := range offered {
		have[strings.ToLower(strings.TrimSpace(s))] = true
	}

	matched := 0
	for _, s := range required {
		if have[strings.ToLower(strings.TrimSpace(s))] {
			matched++
		}
	}

	return matched * 100 / len(required)
}

func (h *Handler) calculateCompensationFit(founderMin, founderMax, builderMin int) int {
	if founderMax == 0 {
		return neutralFit
	}
	if builderMin <= founderMax {
		return 100
	}

	// The builder wants more than the ceiling; taper by how far over they are.
	over := builderMin - founderMax
	fit := 100 - over*100/founderMax
	if fit < 0 {
		fit = 0
	}
	return fit
}

func (h *Handler) calculateCommitmentFit(expected, available int) int {
	if expected == 0 {
		return neutralFit
	}
	if available >= expected {
		return 100
	}
	return available * 100 / expected
}

func (h *Handler) calculateStageFit(stage string, preferred []string) int {
	if stage == "" || len(preferred) == 0 {
		return neutralFit
	}
	for _, p := range preferred {
		if strings.EqualFold(p, stage) {
			return 100
		}
	}
	return 25
}

func (h *Handler) calculateLocationFit(founder *FounderRequirements, builder *BuilderPreferences) int {
	if founder.RemoteOK && builder.RemoteOK {
		return 100
	}
	if founder.Location != "" && strings.EqualFold(founder.Location, builder.Location) {
		return 100
	}
	if founder.RemoteOK || builder.RemoteOK {
		return 70
	}
	if founder.Location == "" || builder.Location == "" {
		return neutralFit
	}
	return 30
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
