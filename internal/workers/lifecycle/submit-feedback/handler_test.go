// internal/workers/lifecycle/submit-feedback/handler_test.go
package submitfeedback

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/models"
	"foundingcircle-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var matchedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func createEndedMatch() models.Match {
	endedAt := matchedAt.Add(30 * 24 * time.Hour)
	return models.Match{
		ID:            "match-001",
		FounderUserID: "founder-001",
		BuilderUserID: "builder-001",
		OpeningID:     "opening-001",
		Status:        models.StatusEnded,
		StatusHistory: []models.StatusChange{
			{Status: models.StatusActive, ChangedAt: matchedAt, Reason: "mutual interest"},
			{Status: models.StatusEnded, ChangedAt: endedAt, Reason: "position filled"},
		},
		Outcome:        models.OutcomePositionFilled,
		MatchedAt:      matchedAt,
		CompletedAt:    &endedAt,
		LastActivityAt: endedAt,
		Version:        3,
	}
}

func goodRatings() models.FeedbackRatings {
	return models.FeedbackRatings{Overall: 4, Communication: 5, Reliability: 4, SkillFit: 3}
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	matches := repository.NewMatchRepository(sqlDB, logger.NewTestLogger(t), 3)
	return NewHandler(LoadConfig(), matches, logger.NewTestLogger(t)), mock
}

func expectLoad(t *testing.T, mock sqlmock.Sqlmock, m models.Match) {
	t.Helper()
	doc, err := json.Marshal(m)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT doc, version FROM matches WHERE id`).
		WithArgs(m.ID).
		WillReturnRows(sqlmock.NewRows([]string{"doc", "version"}).AddRow(doc, m.Version))
}

func assertErrCode(t *testing.T, err error, code commonerrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok, "expected *StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_FirstSide(t *testing.T) {
	handler, mock := newTestHandler(t)

	expectLoad(t, mock, createEndedMatch())
	// Status and outcome are untouched, only the doc and version move.
	mock.ExpectExec(`UPDATE matches SET`).
		WithArgs(
			"ENDED", "POSITION_FILLED", false,
			sqlmock.AnyArg(), 4, sqlmock.AnyArg(),
			"match-001", 3,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{
		MatchID:  "match-001",
		Side:     "founder",
		Ratings:  goodRatings(),
		Comments: "strong technically, hard to reach",
	})

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "founder", output.Side)
	assert.False(t, output.BothFeedbackSubmitted)
	assert.NotEmpty(t, output.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SecondSideCompletes(t *testing.T) {
	handler, mock := newTestHandler(t)

	stored := createEndedMatch()
	stored.FounderFeedback = &models.MatchFeedback{
		Ratings:     goodRatings(),
		SubmittedAt: matchedAt.Add(31 * 24 * time.Hour),
	}
	expectLoad(t, mock, stored)
	mock.ExpectExec(`UPDATE matches SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{
		MatchID: "match-001",
		Side:    "builder",
		Ratings: goodRatings(),
	})

	assert.NoError(t, err)
	assert.True(t, output.BothFeedbackSubmitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_UnknownSide(t *testing.T) {
	handler, mock := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		MatchID: "match-001",
		Side:    "observer",
		Ratings: goodRatings(),
	})

	assertErrCode(t, err, commonerrors.ErrCodeMatchValidationFailed)
	assert.Nil(t, output)
	// Side is checked before any database work.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RatingsOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		ratings models.FeedbackRatings
	}{
		{"above maximum", models.FeedbackRatings{Overall: 6, Communication: 4, Reliability: 4, SkillFit: 4}},
		{"below minimum", models.FeedbackRatings{Overall: 4, Communication: 4, Reliability: 0, SkillFit: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)

			expectLoad(t, mock, createEndedMatch())

			output, err := handler.Execute(context.Background(), &Input{
				MatchID: "match-001",
				Side:    "builder",
				Ratings: tt.ratings,
			})

			assertErrCode(t, err, commonerrors.ErrCodeInvalidFeedbackRating)
			assert.Nil(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_MissingMatchID(t *testing.T) {
	handler, mock := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Side:    "founder",
		Ratings: goodRatings(),
	})

	assertErrCode(t, err, commonerrors.ErrCodeMatchValidationFailed)
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}
