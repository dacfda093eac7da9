// internal/matchengine/lifecycle/lifecycle.go

// Package lifecycle is the transition engine for the match state machine.
// Every operation is expressed as an event applied to an immutable match
// snapshot: Apply(match, event, now) returns the new snapshot plus the status
// history entry it appended, leaving the input untouched. Persisting the
// snapshot is the caller's job, so a failed write never leaves a partial
// transition behind.
package lifecycle

import (
	"time"

	commonerrors "foundingcircle-workers/internal/common/errors"
	"foundingcircle-workers/internal/matchengine/scoring"
	"foundingcircle-workers/internal/models"
)

// Event is a lifecycle operation on a match.
type Event interface {
	operation() string
}

// ConversationLinked attaches the conversation aggregate to the match.
// Only the first link flips conversationStarted and stamps firstMessageAt.
type ConversationLinked struct {
	ConversationID string
	Actor          string
}

// MessageActivity reports the running message count from the conversation side.
type MessageActivity struct {
	MessageCount  int
	LastMessageAt time.Time
}

// TrialStarted moves an active match into trial.
type TrialStarted struct {
	TrialID string
	Actor   string
}

// TrialCompleted reports the terminal outcome of the external trial aggregate.
type TrialCompleted struct {
	Outcome models.TrialOutcome
	Actor   string
	Reason  string
}

// Hired records a hire decision; reachable from any status, trial or not.
type Hired struct {
	Actor  string
	Reason string
}

// Ended terminates the match with one of the closed end outcomes.
type Ended struct {
	Outcome models.MatchOutcome
	Actor   string
	Reason  string
}

// FeedbackSubmitted stores one side's retrospective feedback; legal in any status.
type FeedbackSubmitted struct {
	Side     models.FeedbackSide
	Ratings  models.FeedbackRatings
	Comments string
}

func (ConversationLinked) operation() string { return "linkConversation" }
func (MessageActivity) operation() string    { return "updateMessageCount" }
func (TrialStarted) operation() string       { return "startTrial" }
func (TrialCompleted) operation() string     { return "completeTrial" }
func (Hired) operation() string              { return "markHired" }
func (Ended) operation() string              { return "endMatch" }
func (FeedbackSubmitted) operation() string  { return "submitFeedback" }

// MutualInterests is the correlated pair of interests a match is created from.
type MutualInterests struct {
	BuilderInterest models.Interest
	FounderInterest models.Interest
}

// NewMatch materializes the initial ACTIVE snapshot from a mutual-interest
// pair and a freshly computed score. The score is a point-in-time snapshot and
// is never recomputed afterward.
func NewMatch(id string, pair MutualInterests, score scoring.Result, now time.Time) models.Match {
	bi := pair.BuilderInterest
	return models.Match{
		ID:               id,
		FounderUserID:    bi.FounderUserID,
		FounderProfileID: bi.FounderProfileID,
		BuilderUserID:    bi.BuilderUserID,
		BuilderProfileID: bi.BuilderProfileID,
		OpeningID:        bi.OpeningID,
		InterestID:       bi.ID,

		Status: models.StatusActive,
		StatusHistory: []models.StatusChange{
			{Status: models.StatusActive, ChangedAt: now, Reason: "mutual interest"},
		},

		CompatibilityScore:     score.Score,
		CompatibilityBreakdown: score.Breakdown,
		ScenarioCompatibility:  score.Breakdown.Scenario,

		Outcome:        models.OutcomePending,
		MatchedAt:      now,
		LastActivityAt: now,
	}
}

// Apply runs one lifecycle event against a match snapshot. It returns the new
// snapshot and, when the event changed the status, the history entry that was
// appended. lastActivityAt is refreshed on every event, status change or not.
func Apply(m models.Match, ev Event, now time.Time) (models.Match, *models.StatusChange, error) {
	// Clone the history slice so appends never alias the caller's snapshot.
	history := make([]models.StatusChange, len(m.StatusHistory), len(m.StatusHistory)+1)
	copy(history, m.StatusHistory)
	m.StatusHistory = history

	var change *models.StatusChange

	switch e := ev.(type) {
	case ConversationLinked:
		if !m.ConversationStarted {
			m.ConversationID = e.ConversationID
			m.ConversationStarted = true
			t := now
			m.FirstMessageAt = &t
		}

	case MessageActivity:
		m.MessageCount = e.MessageCount
		t := e.LastMessageAt
		if t.IsZero() {
			t = now
		}
		m.LastMessageAt = &t

	case TrialStarted:
		if m.Status != models.StatusActive {
			return m, nil, commonerrors.NewIllegalStatusTransitionError(string(m.Status), e.operation())
		}
		m.TrialID = e.TrialID
		m.HadTrial = true
		m.TrialOutcome = models.TrialPending
		t := now
		m.TrialStartedAt = &t
		change = transition(&m, models.StatusInTrial, now, e.Actor, "")

	case TrialCompleted:
		if m.Status != models.StatusInTrial {
			return m, nil, commonerrors.NewIllegalStatusTransitionError(string(m.Status), e.operation())
		}
		switch e.Outcome {
		case models.TrialSuccess:
			m.TrialOutcome = models.TrialSuccess
			m.Outcome = models.OutcomeTrialSuccess
			m.OutcomeReason = e.Reason
			t := now
			m.OutcomeRecordedAt = &t
			change = transition(&m, models.StatusCompleted, now, e.Actor, e.Reason)
		case models.TrialUnsuccessful:
			m.TrialOutcome = models.TrialUnsuccessful
			m.Outcome = models.OutcomeTrialFailed
			m.OutcomeReason = e.Reason
			t := now
			m.OutcomeRecordedAt = &t
			change = transition(&m, models.StatusEnded, now, e.Actor, e.Reason)
		case models.TrialCancelled:
			// Trial abandoned without penalty: the match reverts to active.
			m.TrialOutcome = models.TrialCancelled
			m.Outcome = models.OutcomePending
			m.OutcomeReason = ""
			m.OutcomeRecordedAt = nil
			change = transition(&m, models.StatusActive, now, e.Actor, "trial cancelled")
		default:
			return m, nil, commonerrors.NewInvalidTrialOutcomeError(string(e.Outcome))
		}

	case Hired:
		m.Outcome = models.OutcomeHired
		m.OutcomeReason = e.Reason
		t := now
		m.OutcomeRecordedAt = &t
		m.IsSuccessfulHire = true
		change = transition(&m, models.StatusHired, now, e.Actor, e.Reason)

	case Ended:
		if !models.EndOutcomes[e.Outcome] {
			return m, nil, commonerrors.NewInvalidEndOutcomeError(string(e.Outcome))
		}
		m.Outcome = e.Outcome
		m.OutcomeReason = e.Reason
		t := now
		m.OutcomeRecordedAt = &t
		change = transition(&m, models.StatusEnded, now, e.Actor, e.Reason)

	case FeedbackSubmitted:
		if err := validateRatings(e.Ratings); err != nil {
			return m, nil, err
		}
		fb := &models.MatchFeedback{
			Ratings:     e.Ratings,
			Comments:    e.Comments,
			SubmittedAt: now,
		}
		if e.Side == models.FeedbackSideFounder {
			m.FounderFeedback = fb
		} else {
			m.BuilderFeedback = fb
		}

	default:
		return m, nil, commonerrors.NewMatchValidationFailedError("unknown lifecycle event")
	}

	m.LastActivityAt = now
	return m, change, nil
}

// transition moves the match to a new status, appending exactly one history
// entry. On first entry into a terminal status it stamps completedAt; the
// stamp is never overwritten afterward.
func transition(m *models.Match, to models.MatchStatus, now time.Time, actor, reason string) *models.StatusChange {
	if m.Status == to {
		return nil
	}

	m.Status = to
	entry := models.StatusChange{
		Status:    to,
		ChangedAt: now,
		ChangedBy: actor,
		Reason:    reason,
	}
	m.StatusHistory = append(m.StatusHistory, entry)

	if to.IsTerminal() && m.CompletedAt == nil {
		t := now
		m.CompletedAt = &t
	}

	return &entry
}

func validateRatings(r models.FeedbackRatings) error {
	for _, v := range []int{r.Overall, r.Communication, r.Reliability, r.SkillFit} {
		if v < 1 || v > 5 {
			return commonerrors.NewInvalidFeedbackRatingError("rating out of range")
		}
	}
	return nil
}
