// internal/workers/data-access/query-match-stats/handler.go
package querymatchstats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/metrics"
	"foundingcircle-workers/internal/models"
	"foundingcircle-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-match-stats"
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
	var (
		results interface{}
		count   int
		err     error
	)

	queryType := models.QueryType(input.QueryType)
	switch queryType {
	case models.QueryTypeMatchStatusCounts:
		var counts map[string]int
		counts, err = h.matches.StatusCounts(ctx)
		results, count = counts, total(counts)

	case models.QueryTypeMatchOutcomeCounts:
		var counts map[string]int
		counts, err = h.matches.OutcomeCounts(ctx)
		results, count = counts, total(counts)

	case models.QueryTypeSuccessStories:
		limit := input.Parameters.Limit
		if limit <= 0 {
			limit = h.config.SuccessStoryLimit
		}
		var stories []models.Match
		stories, err = h.matches.SuccessStories(ctx, limit)
		results, count = stories, len(stories)

	case models.QueryTypeMatchActivity:
		sinceDays := input.Parameters.SinceDays
		if sinceDays <= 0 {
			sinceDays = h.config.DefaultSinceDays
		}
		since := time.Now().UTC().AddDate(0, 0, -sinceDays)
		var stats repository.ActivityStats
		stats, err = h.matches.Activity(ctx, since)
		results, count = stats, stats.OpenMatches

	default:
		return nil, commonerrors.NewInvalidQueryTypeError(input.QueryType)
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewQueryTimeoutError(input.QueryType)
		}
		return nil, err
	}

	h.logger.Info("match stats query executed", map[string]interface{}{
		"queryType": input.QueryType,
		"count":     count,
	})

	return &Output{
		QueryType:  input.QueryType,
		Results:    results,
		Count:      count,
		ExecutedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func total(counts map[string]int) int {
	sum := 0
	for _, c := range counts {
		sum += c
	}
	return sum
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
