// internal/workers/data-access/index-match-analytics/handler.go
package indexmatchanalytics

import (
	"bytes"
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
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "index-match-analytics"
)

type Handler struct {
	config  *Config
	matches *repository.MatchRepository
	es      *elasticsearch.Client
	logger  logger.Logger
	errors  *commonerrors.ErrorHandler
}

func NewHandler(config *Config, matches *repository.MatchRepository, es *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		matches: matches,
		es:      es,
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

	match, err := h.matches.GetByID(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}

	indexedAt := time.Now().UTC()
	doc := buildDocument(&match, indexedAt)

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index, err)
	}

	// Keyed by match id so re-indexing a match overwrites instead of duplicating.
	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: match.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index,
			fmt.Errorf("index request returned %s", res.Status()))
	}

	h.logger.Info("match analytics indexed", map[string]interface{}{
		"matchId": match.ID,
		"index":   h.config.Index,
		"status":  string(match.Status),
	})

	return &Output{
		MatchID:   match.ID,
		Index:     h.config.Index,
		IndexedAt: indexedAt.Format(time.RFC3339),
	}, nil
}

func buildDocument(m *models.Match, indexedAt time.Time) AnalyticsDocument {
	doc := AnalyticsDocument{
		MatchID:            m.ID,
		FounderUserID:      m.FounderUserID,
		BuilderUserID:      m.BuilderUserID,
		OpeningID:          m.OpeningID,
		Status:             string(m.Status),
		Outcome:            string(m.Outcome),
		CompatibilityScore: m.CompatibilityScore,
		ScenarioScore:      m.ScenarioCompatibility,
		ConversationCount:  m.MessageCount,
		HadTrial:           m.HadTrial,
		TrialOutcome:       string(m.TrialOutcome),
		IsSuccessfulHire:   m.IsSuccessfulHire,
		StatusChanges:      len(m.StatusHistory),
		MatchedAt:          m.MatchedAt.Format(time.RFC3339),
		IndexedAt:          indexedAt.Format(time.RFC3339),
	}

	if m.CompletedAt != nil {
		doc.CompletedAt = m.CompletedAt.Format(time.RFC3339)
		days := int(m.CompletedAt.Sub(m.MatchedAt).Hours() / 24)
		doc.DaysToCompletion = &days
	}

	return doc
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
