// internal/repository/matches_test.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var matchedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func createStoredMatch() models.Match {
	return models.Match{
		ID:            "match-001",
		FounderUserID: "founder-001",
		BuilderUserID: "builder-001",
		OpeningID:     "opening-001",
		Status:        models.StatusActive,
		StatusHistory: []models.StatusChange{
			{Status: models.StatusActive, ChangedAt: matchedAt, Reason: "mutual interest"},
		},
		CompatibilityScore: 82,
		Outcome:            models.OutcomePending,
		MatchedAt:          matchedAt,
		LastActivityAt:     matchedAt,
		Version:            1,
	}
}

func matchRows(t *testing.T, m models.Match) *sqlmock.Rows {
	t.Helper()
	doc, err := json.Marshal(m)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"doc", "version"}).AddRow(doc, m.Version)
}

func assertErrCode(t *testing.T, err error, code commonerrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok, "expected *StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Create Tests
// ==========================

func TestMatchRepository_Create_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	m := createStoredMatch()

	mock.ExpectExec(`INSERT INTO matches`).
		WithArgs(
			"match-001",
			"builder-001",
			"founder-001",
			"opening-001",
			"ACTIVE",
			"PENDING",
			82,
			false,
			matchedAt,
			matchedAt,
			1,
			sqlmock.AnyArg(), // JSON doc
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	err = repo.Create(context.Background(), m)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Create_DuplicatePair(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO matches`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "matches_builder_opening_key"})

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	err = repo.Create(context.Background(), createStoredMatch())

	assertErrCode(t, err, commonerrors.ErrCodeMatchAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Create_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO matches`).
		WillReturnError(errors.New("connection reset"))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	err = repo.Create(context.Background(), createStoredMatch())

	assertErrCode(t, err, commonerrors.ErrCodeDatabaseInsertFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Lookup Tests
// ==========================

func TestMatchRepository_GetByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	stored := createStoredMatch()
	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WithArgs("match-001").
		WillReturnRows(matchRows(t, stored))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	m, err := repo.GetByID(context.Background(), "match-001")

	assert.NoError(t, err)
	assert.Equal(t, stored.ID, m.ID)
	assert.Equal(t, models.StatusActive, m.Status)
	assert.Equal(t, 1, m.Version)
	assert.Len(t, m.StatusHistory, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"doc", "version"}))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	_, err = repo.GetByID(context.Background(), "missing")

	assertErrCode(t, err, commonerrors.ErrCodeMatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_GetByBuilderOpening(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE builder_user_id`).
		WithArgs("builder-001", "opening-001").
		WillReturnRows(matchRows(t, createStoredMatch()))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	m, err := repo.GetByBuilderOpening(context.Background(), "builder-001", "opening-001")

	assert.NoError(t, err)
	assert.Equal(t, "match-001", m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Update Tests
// ==========================

func TestMatchRepository_Update_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WithArgs("match-001").
		WillReturnRows(matchRows(t, createStoredMatch()))

	// Save is guarded by the version the snapshot was read at (1), writing 2.
	mock.ExpectExec(`UPDATE matches SET`).
		WithArgs(
			"IN_TRIAL", "PENDING", false,
			sqlmock.AnyArg(), 2, sqlmock.AnyArg(),
			"match-001", 1,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	saved, err := repo.Update(context.Background(), "match-001", "startTrial", func(m models.Match) (models.Match, error) {
		m.Status = models.StatusInTrial
		return m, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusInTrial, saved.Status)
	assert.Equal(t, 2, saved.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Update_RetriesOnVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	// First cycle loses the race: zero rows affected.
	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WillReturnRows(matchRows(t, createStoredMatch()))
	mock.ExpectExec(`UPDATE matches SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Second cycle sees the winner's bump and succeeds.
	bumped := createStoredMatch()
	bumped.Version = 2
	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WillReturnRows(matchRows(t, bumped))
	mock.ExpectExec(`UPDATE matches SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	saved, err := repo.Update(context.Background(), "match-001", "endMatch", func(m models.Match) (models.Match, error) {
		m.Status = models.StatusEnded
		return m, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, saved.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Update_ConflictExhaustsRetries(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
			WillReturnRows(matchRows(t, createStoredMatch()))
		mock.ExpectExec(`UPDATE matches SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 2)
	_, err = repo.Update(context.Background(), "match-001", "markHired", func(m models.Match) (models.Match, error) {
		return m, nil
	})

	assertErrCode(t, err, commonerrors.ErrCodeMatchVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Update_FnErrorStopsWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WillReturnRows(matchRows(t, createStoredMatch()))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	_, err = repo.Update(context.Background(), "match-001", "completeTrial", func(m models.Match) (models.Match, error) {
		return models.Match{}, commonerrors.NewIllegalStatusTransitionError("ACTIVE", "completeTrial")
	})

	assertErrCode(t, err, commonerrors.ErrCodeIllegalStatusTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Aggregation Tests
// ==========================

func TestMatchRepository_StatusCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("ACTIVE", 12).
			AddRow("IN_TRIAL", 3).
			AddRow("HIRED", 5))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	counts, err := repo.StatusCounts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"ACTIVE": 12, "IN_TRIAL": 3, "HIRED": 5}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_OutcomeCounts_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT outcome, COUNT`).
		WillReturnError(errors.New("relation does not exist"))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	_, err = repo.OutcomeCounts(context.Background())

	assertErrCode(t, err, commonerrors.ErrCodeQueryExecutionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_SuccessStories(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	hired := createStoredMatch()
	hired.Status = models.StatusHired
	hired.IsSuccessfulHire = true
	hired.Annotations.CanShareStory = true
	doc, _ := json.Marshal(hired)

	mock.ExpectQuery(`SELECT doc, version FROM matches\s+WHERE is_successful_hire`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"doc", "version"}).AddRow(doc, 4))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	stories, err := repo.SuccessStories(context.Background(), 10)

	assert.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "match-001", stories[0].ID)
	assert.Equal(t, 4, stories[0].Version)
	assert.True(t, stories[0].IsSuccessfulHire)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Activity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	since := matchedAt.Add(-7 * 24 * time.Hour)
	mock.ExpectQuery(`SELECT\s+COUNT`).
		WithArgs(since, "IN_TRIAL", "ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"open", "recent", "conv", "trial"}).
			AddRow(15, 9, 11, 3))

	repo := NewMatchRepository(db, logger.NewTestLogger(t), 3)
	stats, err := repo.Activity(context.Background(), since)

	assert.NoError(t, err)
	assert.Equal(t, ActivityStats{OpenMatches: 15, RecentlyActive: 9, WithConversation: 11, InTrial: 3}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
