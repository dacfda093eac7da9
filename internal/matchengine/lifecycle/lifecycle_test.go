// internal/matchengine/lifecycle/lifecycle_test.go
package lifecycle

import (
	"testing"
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/matchengine/scoring"
	"foundingcircle-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func createTestPair() MutualInterests {
	builderInterest := models.Interest{
		ID:               "interest-b1",
		Direction:        models.InterestBuilderToOpening,
		FounderUserID:    "founder-1",
		FounderProfileID: "fprofile-1",
		BuilderUserID:    "builder-1",
		BuilderProfileID: "bprofile-1",
		OpeningID:        "opening-1",
	}
	founderInterest := builderInterest
	founderInterest.ID = "interest-f1"
	founderInterest.Direction = models.InterestFounderToBuilder
	return MutualInterests{BuilderInterest: builderInterest, FounderInterest: founderInterest}
}

func createTestMatch() models.Match {
	scenario := 70
	return NewMatch("match-1", createTestPair(), scoring.Result{
		Score: 82,
		Breakdown: models.CompatibilityBreakdown{
			Skills: 90, Compensation: 85, Commitment: 80,
			Stage: 75, Scenario: &scenario, Location: 80,
		},
	}, t0)
}

func goodRatings() models.FeedbackRatings {
	return models.FeedbackRatings{Overall: 4, Communication: 5, Reliability: 4, SkillFit: 3}
}

func mustApply(t *testing.T, m models.Match, ev Event, now time.Time) models.Match {
	t.Helper()
	next, _, err := Apply(m, ev, now)
	require.NoError(t, err)
	return next
}

func errCode(err error) commonerrors.ErrorCode {
	stdErr, ok := err.(*commonerrors.StandardError)
	if !ok {
		return ""
	}
	return stdErr.Code
}

// ==========================
// Creation Tests
// ==========================

func TestNewMatch_InitialState(t *testing.T) {
	m := createTestMatch()

	assert.Equal(t, models.StatusActive, m.Status)
	require.Len(t, m.StatusHistory, 1)
	assert.Equal(t, models.StatusActive, m.StatusHistory[0].Status)
	assert.Equal(t, t0, m.MatchedAt)
	assert.Equal(t, t0, m.LastActivityAt)
	assert.Equal(t, 82, m.CompatibilityScore)
	assert.Equal(t, models.OutcomePending, m.Outcome)
	assert.False(t, m.IsSuccessfulHire)
	assert.Nil(t, m.CompletedAt)
	if assert.NotNil(t, m.ScenarioCompatibility) {
		assert.Equal(t, 70, *m.ScenarioCompatibility)
	}
}

// ==========================
// Conversation Tests
// ==========================

func TestApply_ConversationLinked_FirstCallOnly(t *testing.T) {
	m := createTestMatch()

	m = mustApply(t, m, ConversationLinked{ConversationID: "conv-1"}, at(5))
	assert.True(t, m.ConversationStarted)
	assert.Equal(t, "conv-1", m.ConversationID)
	require.NotNil(t, m.FirstMessageAt)
	assert.Equal(t, at(5), *m.FirstMessageAt)

	// Second link is a no-op apart from activity refresh
	m = mustApply(t, m, ConversationLinked{ConversationID: "conv-2"}, at(10))
	assert.Equal(t, "conv-1", m.ConversationID)
	assert.Equal(t, at(5), *m.FirstMessageAt)
	assert.Equal(t, at(10), m.LastActivityAt)

	// Linking never touches status
	assert.Equal(t, models.StatusActive, m.Status)
	assert.Len(t, m.StatusHistory, 1)
}

func TestApply_MessageActivity(t *testing.T) {
	m := createTestMatch()

	m = mustApply(t, m, MessageActivity{MessageCount: 7, LastMessageAt: at(15)}, at(16))

	assert.Equal(t, 7, m.MessageCount)
	require.NotNil(t, m.LastMessageAt)
	assert.Equal(t, at(15), *m.LastMessageAt)
	assert.Equal(t, at(16), m.LastActivityAt)
	assert.Len(t, m.StatusHistory, 1)
}

// ==========================
// Trial Tests
// ==========================

func TestApply_TrialStarted(t *testing.T) {
	m := createTestMatch()

	m = mustApply(t, m, TrialStarted{TrialID: "trial-1", Actor: "founder-1"}, at(30))

	assert.Equal(t, models.StatusInTrial, m.Status)
	assert.True(t, m.HadTrial)
	assert.Equal(t, "trial-1", m.TrialID)
	assert.Equal(t, models.TrialPending, m.TrialOutcome)
	require.NotNil(t, m.TrialStartedAt)
	assert.Equal(t, at(30), *m.TrialStartedAt)
	require.Len(t, m.StatusHistory, 2)
	assert.Equal(t, models.StatusInTrial, m.StatusHistory[1].Status)
	assert.Equal(t, "founder-1", m.StatusHistory[1].ChangedBy)
}

func TestApply_TrialStarted_RequiresActive(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))

	_, _, err := Apply(m, TrialStarted{TrialID: "trial-2"}, at(31))
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeIllegalStatusTransition, errCode(err))
}

func TestApply_TrialCompleted_Success(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))

	m = mustApply(t, m, TrialCompleted{Outcome: models.TrialSuccess}, at(60))

	assert.Equal(t, models.StatusCompleted, m.Status)
	assert.Equal(t, models.TrialSuccess, m.TrialOutcome)
	assert.Equal(t, models.OutcomeTrialSuccess, m.Outcome)
	assert.NotEqual(t, models.OutcomeTrialFailed, m.Outcome)
	require.NotNil(t, m.CompletedAt)
	assert.Equal(t, at(60), *m.CompletedAt)
}

func TestApply_TrialCompleted_Unsuccessful(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))

	m = mustApply(t, m, TrialCompleted{Outcome: models.TrialUnsuccessful, Reason: "skills mismatch"}, at(60))

	assert.Equal(t, models.StatusEnded, m.Status)
	assert.Equal(t, models.OutcomeTrialFailed, m.Outcome)
	assert.Equal(t, "skills mismatch", m.OutcomeReason)
	assert.NotNil(t, m.CompletedAt)
}

func TestApply_TrialCompleted_CancelledRevertsToActive(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))

	m = mustApply(t, m, TrialCompleted{Outcome: models.TrialCancelled}, at(45))

	assert.Equal(t, models.StatusActive, m.Status)
	assert.Equal(t, models.TrialCancelled, m.TrialOutcome)
	assert.Equal(t, models.OutcomePending, m.Outcome)
	assert.Nil(t, m.OutcomeRecordedAt)
	assert.Nil(t, m.CompletedAt)
	// ACTIVE -> IN_TRIAL -> ACTIVE is three history entries
	assert.Len(t, m.StatusHistory, 3)

	// The match can go into a fresh trial afterwards
	m = mustApply(t, m, TrialStarted{TrialID: "trial-2"}, at(50))
	assert.Equal(t, models.StatusInTrial, m.Status)
	assert.Equal(t, "trial-2", m.TrialID)
}

func TestApply_TrialCompleted_InvalidToken(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))

	_, _, err := Apply(m, TrialCompleted{Outcome: "MAYBE"}, at(31))
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidTrialOutcome, errCode(err))
}

func TestApply_TrialCompleted_RequiresInTrial(t *testing.T) {
	m := createTestMatch()

	_, _, err := Apply(m, TrialCompleted{Outcome: models.TrialSuccess}, at(10))
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeIllegalStatusTransition, errCode(err))
}

// ==========================
// Hire / End Tests
// ==========================

func TestApply_Hired_WithoutTrial(t *testing.T) {
	m := createTestMatch()

	m = mustApply(t, m, Hired{Actor: "founder-1", Reason: "direct hire"}, at(20))

	assert.Equal(t, models.StatusHired, m.Status)
	assert.Equal(t, models.OutcomeHired, m.Outcome)
	assert.True(t, m.IsSuccessfulHire)
	assert.False(t, m.HadTrial)
	require.NotNil(t, m.OutcomeRecordedAt)
	assert.Equal(t, at(20), *m.OutcomeRecordedAt)
	assert.NotNil(t, m.CompletedAt)
}

func TestApply_Hired_AfterCompletedTrial(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(30))
	m = mustApply(t, m, TrialCompleted{Outcome: models.TrialSuccess}, at(60))

	m = mustApply(t, m, Hired{}, at(90))

	assert.Equal(t, models.StatusHired, m.Status)
	assert.True(t, m.IsSuccessfulHire)
	// completedAt is stamped once, on first terminal entry
	assert.Equal(t, at(60), *m.CompletedAt)
}

func TestApply_Ended_ClosedOutcomeSet(t *testing.T) {
	valid := []models.MatchOutcome{
		models.OutcomeDeclinedFounder,
		models.OutcomeDeclinedBuilder,
		models.OutcomeInactive,
		models.OutcomePositionFilled,
		models.OutcomeOther,
	}

	for _, outcome := range valid {
		t.Run(string(outcome), func(t *testing.T) {
			m := mustApply(t, createTestMatch(), Ended{Outcome: outcome}, at(10))
			assert.Equal(t, models.StatusEnded, m.Status)
			assert.Equal(t, outcome, m.Outcome)
			assert.NotNil(t, m.CompletedAt)
		})
	}

	for _, outcome := range []models.MatchOutcome{"HIRED", "TRIAL_FAILED", "GHOSTED", ""} {
		t.Run("invalid "+string(outcome), func(t *testing.T) {
			_, _, err := Apply(createTestMatch(), Ended{Outcome: outcome}, at(10))
			require.Error(t, err)
			assert.Equal(t, commonerrors.ErrCodeInvalidEndOutcome, errCode(err))
		})
	}
}

func TestApply_IsSuccessfulHireIsMonotonic(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, Hired{}, at(10))
	require.True(t, m.IsSuccessfulHire)

	m = mustApply(t, m, Ended{Outcome: models.OutcomeOther, Reason: "relationship ended later"}, at(500))

	assert.Equal(t, models.StatusEnded, m.Status)
	assert.True(t, m.IsSuccessfulHire, "hire flag must never be unset")
}

// ==========================
// Feedback Tests
// ==========================

func TestApply_Feedback_OrderIndependent(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, Hired{}, at(10))

	founderEv := FeedbackSubmitted{Side: models.FeedbackSideFounder, Ratings: goodRatings(), Comments: "great"}
	builderEv := FeedbackSubmitted{Side: models.FeedbackSideBuilder, Ratings: goodRatings(), Comments: "solid"}

	founderFirst := mustApply(t, mustApply(t, m, founderEv, at(20)), builderEv, at(30))
	builderFirst := mustApply(t, mustApply(t, m, builderEv, at(30)), founderEv, at(20))

	// lastActivityAt differs by submission order; everything else must not.
	founderFirst.LastActivityAt = time.Time{}
	builderFirst.LastActivityAt = time.Time{}
	assert.Equal(t, founderFirst, builderFirst)
	assert.True(t, founderFirst.BothFeedbackSubmitted())
}

func TestApply_Feedback_OneSideAlone(t *testing.T) {
	m := createTestMatch()

	m = mustApply(t, m, FeedbackSubmitted{Side: models.FeedbackSideBuilder, Ratings: goodRatings()}, at(10))

	assert.NotNil(t, m.BuilderFeedback)
	assert.Nil(t, m.FounderFeedback)
	assert.False(t, m.BothFeedbackSubmitted())
	assert.Equal(t, at(10), m.BuilderFeedback.SubmittedAt)
}

func TestApply_Feedback_AllowedAfterTermination(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, Ended{Outcome: models.OutcomeInactive}, at(10))

	m = mustApply(t, m, FeedbackSubmitted{Side: models.FeedbackSideFounder, Ratings: goodRatings()}, at(20))

	assert.NotNil(t, m.FounderFeedback)
	assert.Equal(t, models.StatusEnded, m.Status)
}

func TestApply_Feedback_RejectsOutOfRangeRatings(t *testing.T) {
	bad := goodRatings()
	bad.Reliability = 6

	_, _, err := Apply(createTestMatch(), FeedbackSubmitted{Side: models.FeedbackSideFounder, Ratings: bad}, at(10))
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidFeedbackRating, errCode(err))

	bad.Reliability = 0
	_, _, err = Apply(createTestMatch(), FeedbackSubmitted{Side: models.FeedbackSideFounder, Ratings: bad}, at(10))
	require.Error(t, err)
}

// ==========================
// History Invariant Tests
// ==========================

func TestApply_HistoryLengthTracksStatusChanges(t *testing.T) {
	m := createTestMatch()

	statusChanging := 0
	steps := []Event{
		ConversationLinked{ConversationID: "conv-1"},            // no
		MessageActivity{MessageCount: 3},                        // no
		TrialStarted{TrialID: "trial-1"},                        // yes
		TrialCompleted{Outcome: models.TrialCancelled},          // yes
		MessageActivity{MessageCount: 9},                        // no
		TrialStarted{TrialID: "trial-2"},                        // yes
		TrialCompleted{Outcome: models.TrialSuccess},            // yes
		Hired{Reason: "trial went well"},                        // yes
		FeedbackSubmitted{Side: models.FeedbackSideFounder, Ratings: goodRatings()}, // no
	}

	for i, ev := range steps {
		var change *models.StatusChange
		var err error
		m, change, err = Apply(m, ev, at(i+1))
		require.NoError(t, err)
		if change != nil {
			statusChanging++
		}
		// The last history entry always reflects the current status
		assert.Equal(t, m.Status, m.StatusHistory[len(m.StatusHistory)-1].Status)
		// Every event refreshes activity
		assert.Equal(t, at(i+1), m.LastActivityAt)
	}

	assert.Equal(t, 5, statusChanging)
	assert.Len(t, m.StatusHistory, statusChanging+1)
}

func TestApply_InputSnapshotIsNotMutated(t *testing.T) {
	original := createTestMatch()
	originalHistoryLen := len(original.StatusHistory)
	originalStatus := original.Status

	next := mustApply(t, original, TrialStarted{TrialID: "trial-1"}, at(5))

	assert.Equal(t, originalStatus, original.Status)
	assert.Len(t, original.StatusHistory, originalHistoryLen)
	assert.NotEqual(t, original.Status, next.Status)
}

func TestApply_FailedEventLeavesNoPartialState(t *testing.T) {
	m := createTestMatch()
	m = mustApply(t, m, TrialStarted{TrialID: "trial-1"}, at(5))

	before := m
	_, _, err := Apply(m, TrialCompleted{Outcome: "BOGUS"}, at(6))
	require.Error(t, err)

	assert.Equal(t, before.Status, m.Status)
	assert.Equal(t, before.TrialOutcome, m.TrialOutcome)
	assert.Len(t, m.StatusHistory, len(before.StatusHistory))
}
