// internal/repository/scenarios.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"foundingcircle-workers/internal/common/database"
	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/models"
)

const defaultScenarioCacheTTL = 10 * time.Minute

// ScenarioStore reads scenario responses with a Redis read-through cache in
// front of PostgreSQL. Responses change rarely, so a short TTL is enough and
// cache failures quietly fall back to the database.
type ScenarioStore struct {
	db     *sql.DB
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// NewScenarioStore creates a scenario response store. cache may be nil, in
// which case every read goes to PostgreSQL. ttlSeconds zero falls back to the
// default.
func NewScenarioStore(db *sql.DB, cache *database.RedisClient, ttlSeconds int, log logger.Logger) *ScenarioStore {
	ttl := defaultScenarioCacheTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &ScenarioStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func scenarioCacheKey(userID string) string {
	return fmt.Sprintf("scenario:response:%s", userID)
}

// GetByUser returns the user's latest scenario response, or the not-found
// business error when the user never submitted one. Callers scoring
// compatibility translate not-found into an unassessed dimension.
func (s *ScenarioStore) GetByUser(ctx context.Context, userID string) (*models.ScenarioResponse, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	query := `
		SELECT user_id, scenario_1, scenario_2, scenario_3,
		       scenario_4, scenario_5, scenario_6, updated_at
		FROM scenario_responses
		WHERE user_id = $1`

	var resp models.ScenarioResponse
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&resp.UserID,
		&resp.Scenario1, &resp.Scenario2, &resp.Scenario3,
		&resp.Scenario4, &resp.Scenario5, &resp.Scenario6,
		&resp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewScenarioResponseNotFoundError(userID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("scenario_response", err)
	}

	s.toCache(ctx, &resp)
	return &resp, nil
}

func (s *ScenarioStore) fromCache(ctx context.Context, userID string) *models.ScenarioResponse {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, scenarioCacheKey(userID))
	if err != nil {
		return nil
	}

	var resp models.ScenarioResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn("corrupt scenario cache entry, dropping", map[string]interface{}{
			"user_id": userID,
		})
		_ = s.cache.Delete(ctx, scenarioCacheKey(userID))
		return nil
	}

	return &resp
}

func (s *ScenarioStore) toCache(ctx context.Context, resp *models.ScenarioResponse) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, scenarioCacheKey(resp.UserID), string(raw), s.ttl); err != nil {
		s.logger.Debug("scenario cache write failed", map[string]interface{}{
			"user_id": resp.UserID,
			"error":   err.Error(),
		})
	}
}
