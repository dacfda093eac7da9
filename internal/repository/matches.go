// internal/repository/matches.go

// Package repository is the PostgreSQL persistence layer for matches and
// scenario responses. Matches are stored as a JSONB document plus a handful
// of indexed columns for uniqueness and aggregation; concurrent writers are
// serialized with an optimistic version column.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/metrics"
	"foundingcircle-workers/internal/models"

	"github.com/lib/pq"
)

const (
	// Postgres unique_violation, raised by the (builder_user_id, opening_id) index.
	pqUniqueViolation = "23505"

	defaultWriteRetries = 3
)

// MatchRepository provides access to the matches table.
type MatchRepository struct {
	db           *sql.DB
	logger       logger.Logger
	writeRetries int
}

// NewMatchRepository creates a match repository. writeRetries is the number of
// optimistic-lock attempts per Update call; zero falls back to the default.
func NewMatchRepository(db *sql.DB, log logger.Logger, writeRetries int) *MatchRepository {
	if writeRetries <= 0 {
		writeRetries = defaultWriteRetries
	}
	return &MatchRepository{
		db:           db,
		logger:       log,
		writeRetries: writeRetries,
	}
}

// Create inserts a brand-new match. A duplicate (builder, opening) pair maps
// the unique-violation error onto the already-exists business error so the
// caller can treat re-delivered jobs as idempotent.
func (r *MatchRepository) Create(ctx context.Context, m models.Match) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return commonerrors.NewMatchValidationFailedError(fmt.Sprintf("marshal match: %s", err.Error()))
	}

	query := `
		INSERT INTO matches (
			id, builder_user_id, founder_user_id, opening_id,
			status, outcome, compatibility_score, is_successful_hire,
			matched_at, last_activity_at, version, doc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		m.ID, m.BuilderUserID, m.FounderUserID, m.OpeningID,
		string(m.Status), string(m.Outcome), m.CompatibilityScore, m.IsSuccessfulHire,
		m.MatchedAt, m.LastActivityAt, m.Version, doc,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return commonerrors.NewMatchAlreadyExistsError(m.BuilderUserID, m.OpeningID)
		}
		return commonerrors.NewDatabaseInsertFailedError(err)
	}

	return nil
}

// GetByID loads one match by id.
func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (models.Match, error) {
	return r.getOne(ctx,
		`SELECT doc, version FROM matches WHERE id = $1`,
		commonerrors.NewMatchNotFoundError(matchID),
		matchID,
	)
}

// GetByBuilderOpening loads the match for a (builder, opening) pair. At most
// one exists thanks to the unique index Create relies on.
func (r *MatchRepository) GetByBuilderOpening(ctx context.Context, builderUserID, openingID string) (models.Match, error) {
	return r.getOne(ctx,
		`SELECT doc, version FROM matches WHERE builder_user_id = $1 AND opening_id = $2`,
		commonerrors.NewMatchNotFoundError(fmt.Sprintf("builder=%s opening=%s", builderUserID, openingID)),
		builderUserID, openingID,
	)
}

func (r *MatchRepository) getOne(ctx context.Context, query string, notFound *commonerrors.StandardError, args ...interface{}) (models.Match, error) {
	var (
		doc     []byte
		version int
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return models.Match{}, notFound
	}
	if err != nil {
		return models.Match{}, commonerrors.NewQueryExecutionFailedError("match_lookup", err)
	}

	var m models.Match
	if err := json.Unmarshal(doc, &m); err != nil {
		return models.Match{}, commonerrors.NewQueryExecutionFailedError("match_lookup", err)
	}
	// The column is authoritative; the doc copy can lag by one bump.
	m.Version = version

	return m, nil
}

// save writes the match back, guarded by the version the snapshot was read at.
// Zero rows affected means another writer got there first.
func (r *MatchRepository) save(ctx context.Context, m models.Match) (models.Match, error) {
	next := m
	next.Version = m.Version + 1

	doc, err := json.Marshal(next)
	if err != nil {
		return models.Match{}, commonerrors.NewMatchValidationFailedError(fmt.Sprintf("marshal match: %s", err.Error()))
	}

	query := `
		UPDATE matches SET
			status = $1, outcome = $2, is_successful_hire = $3,
			last_activity_at = $4, version = $5, doc = $6
		WHERE id = $7 AND version = $8`

	result, err := r.db.ExecContext(ctx, query,
		string(next.Status), string(next.Outcome), next.IsSuccessfulHire,
		next.LastActivityAt, next.Version, doc,
		next.ID, m.Version,
	)
	if err != nil {
		return models.Match{}, commonerrors.NewDatabaseInsertFailedError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.Match{}, commonerrors.NewDatabaseInsertFailedError(err)
	}
	if affected == 0 {
		return models.Match{}, commonerrors.NewMatchVersionConflictError(next.ID)
	}

	return next, nil
}

// Update runs a read-modify-write cycle under optimistic locking: load the
// match, apply fn to the snapshot, and save; on a version conflict the whole
// cycle is retried against the fresh row. operation labels the conflict metric.
func (r *MatchRepository) Update(ctx context.Context, matchID, operation string, fn func(models.Match) (models.Match, error)) (models.Match, error) {
	var lastErr error

	for attempt := 0; attempt < r.writeRetries; attempt++ {
		m, err := r.GetByID(ctx, matchID)
		if err != nil {
			return models.Match{}, err
		}

		next, err := fn(m)
		if err != nil {
			return models.Match{}, err
		}

		saved, err := r.save(ctx, next)
		if err == nil {
			return saved, nil
		}

		stdErr, ok := err.(*commonerrors.StandardError)
		if !ok || stdErr.Code != commonerrors.ErrCodeMatchVersionConflict {
			return models.Match{}, err
		}

		metrics.MatchWriteConflicts.WithLabelValues(operation).Inc()
		r.logger.Warn("optimistic lock conflict, retrying", map[string]interface{}{
			"match_id":  matchID,
			"operation": operation,
			"attempt":   attempt + 1,
		})
		lastErr = err
	}

	return models.Match{}, lastErr
}

// ==========================
// Aggregation Queries
// ==========================

// StatusCounts returns the number of matches per lifecycle status.
func (r *MatchRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	return r.countsBy(ctx, "status", "match_status_counts")
}

// OutcomeCounts returns the number of matches per recorded outcome.
func (r *MatchRepository) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	return r.countsBy(ctx, "outcome", "match_outcome_counts")
}

func (r *MatchRepository) countsBy(ctx context.Context, column, queryType string) (map[string]int, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM matches GROUP BY %s`, column, column)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(queryType, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(queryType, err)
	}

	return counts, nil
}

// SuccessStories returns hired matches whose parties consented to sharing,
// newest first.
func (r *MatchRepository) SuccessStories(ctx context.Context, limit int) ([]models.Match, error) {
	query := `
		SELECT doc, version FROM matches
		WHERE is_successful_hire = TRUE
		  AND (doc -> 'annotations' ->> 'canShareStory')::boolean = TRUE
		ORDER BY (doc ->> 'completedAt') DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("success_stories", err)
	}
	defer rows.Close()

	var stories []models.Match
	for rows.Next() {
		var (
			doc     []byte
			version int
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("success_stories", err)
		}

		var m models.Match
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("success_stories", err)
		}
		m.Version = version
		stories = append(stories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("success_stories", err)
	}

	return stories, nil
}

// ActivityStats summarizes recent engagement across open matches.
type ActivityStats struct {
	OpenMatches      int `json:"openMatches"`
	RecentlyActive   int `json:"recentlyActive"`
	WithConversation int `json:"withConversation"`
	InTrial          int `json:"inTrial"`
}

// Activity reports engagement counts over open matches, with "recently active"
// meaning activity at or after the since cutoff.
func (r *MatchRepository) Activity(ctx context.Context, since time.Time) (ActivityStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_activity_at >= $1),
			COUNT(*) FILTER (WHERE (doc ->> 'conversationStarted')::boolean = TRUE),
			COUNT(*) FILTER (WHERE status = $2)
		FROM matches
		WHERE status IN ($3, $2)`

	var stats ActivityStats
	err := r.db.QueryRowContext(ctx, query,
		since, string(models.StatusInTrial), string(models.StatusActive),
	).Scan(&stats.OpenMatches, &stats.RecentlyActive, &stats.WithConversation, &stats.InTrial)
	if err != nil {
		return ActivityStats{}, commonerrors.NewQueryExecutionFailedError("match_activity", err)
	}

	return stats, nil
}
