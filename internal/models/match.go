// internal/models/match.go
package models

import "time"

// MatchStatus is the lifecycle status of a match.
type MatchStatus string

const (
	StatusActive    MatchStatus = "ACTIVE"
	StatusInTrial   MatchStatus = "IN_TRIAL"
	StatusCompleted MatchStatus = "COMPLETED"
	StatusHired     MatchStatus = "HIRED"
	StatusEnded     MatchStatus = "ENDED"
)

// IsTerminal reports whether the status closes the match for practical purposes.
// Terminal here is soft: markHired and endMatch remain reachable from any status.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusHired, StatusEnded:
		return true
	}
	return false
}

// TrialOutcome is the outcome reported by the external trial aggregate.
type TrialOutcome string

const (
	TrialPending      TrialOutcome = "PENDING"
	TrialSuccess      TrialOutcome = "SUCCESS"
	TrialUnsuccessful TrialOutcome = "UNSUCCESSFUL"
	TrialCancelled    TrialOutcome = "CANCELLED"
)

// MatchOutcome is the recorded business outcome of a match.
type MatchOutcome string

const (
	OutcomePending         MatchOutcome = "PENDING"
	OutcomeHired           MatchOutcome = "HIRED"
	OutcomeTrialSuccess    MatchOutcome = "TRIAL_SUCCESS"
	OutcomeTrialFailed     MatchOutcome = "TRIAL_FAILED"
	OutcomeDeclinedFounder MatchOutcome = "DECLINED_FOUNDER"
	OutcomeDeclinedBuilder MatchOutcome = "DECLINED_BUILDER"
	OutcomeInactive        MatchOutcome = "INACTIVE"
	OutcomePositionFilled  MatchOutcome = "POSITION_FILLED"
	OutcomeOther           MatchOutcome = "OTHER"
)

// EndOutcomes is the closed set of outcomes accepted by the end-match operation.
var EndOutcomes = map[MatchOutcome]bool{
	OutcomeDeclinedFounder: true,
	OutcomeDeclinedBuilder: true,
	OutcomeInactive:        true,
	OutcomePositionFilled:  true,
	OutcomeOther:           true,
}

// StatusChange is one append-only entry in a match's status history.
type StatusChange struct {
	Status    MatchStatus `json:"status"`
	ChangedAt time.Time   `json:"changedAt"`
	ChangedBy string      `json:"changedBy,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// CompatibilityBreakdown holds the per-dimension sub-scores behind a match's
// aggregate compatibility score. Scenario is nil when either party has not
// completed the scenario assessment; that is distinct from a scenario score of 0.
type CompatibilityBreakdown struct {
	Skills       int  `json:"skills"`
	Compensation int  `json:"compensation"`
	Commitment   int  `json:"commitment"`
	Stage        int  `json:"stage"`
	Scenario     *int `json:"scenario,omitempty"`
	Location     int  `json:"location"`
}

// FeedbackRatings is a 1-5 rating set submitted by one side of a match.
type FeedbackRatings struct {
	Overall       int `json:"overall"`
	Communication int `json:"communication"`
	Reliability   int `json:"reliability"`
	SkillFit      int `json:"skillFit"`
}

// MatchFeedback is one party's retrospective feedback on a match.
type MatchFeedback struct {
	Ratings     FeedbackRatings `json:"ratings"`
	Comments    string          `json:"comments,omitempty"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Annotations is the closed set of recognized optional match flags.
type Annotations struct {
	IsFeatured    bool   `json:"isFeatured,omitempty"`
	CanShareStory bool   `json:"canShareStory,omitempty"`
	SourceTag     string `json:"sourceTag,omitempty"`
}

// Match is the central entity tracking a founder-builder relationship from
// mutual interest through conversation, trial, outcome, and feedback.
// All references to other aggregates (users, profiles, opening, interests,
// conversation, trial) are non-owning ids.
type Match struct {
	ID string `json:"id"`

	FounderUserID    string `json:"founderUserId"`
	FounderProfileID string `json:"founderProfileId"`
	BuilderUserID    string `json:"builderUserId"`
	BuilderProfileID string `json:"builderProfileId"`
	OpeningID        string `json:"openingId"`
	InterestID       string `json:"interestId"`

	Status        MatchStatus    `json:"status"`
	StatusHistory []StatusChange `json:"statusHistory"`

	CompatibilityScore     int                    `json:"compatibilityScore"`
	CompatibilityBreakdown CompatibilityBreakdown `json:"compatibilityBreakdown"`
	ScenarioCompatibility  *int                   `json:"scenarioCompatibility,omitempty"`

	ConversationID      string     `json:"conversationId,omitempty"`
	ConversationStarted bool       `json:"conversationStarted"`
	MessageCount        int        `json:"messageCount"`
	LastMessageAt       *time.Time `json:"lastMessageAt,omitempty"`

	TrialID      string       `json:"trialId,omitempty"`
	HadTrial     bool         `json:"hadTrial"`
	TrialOutcome TrialOutcome `json:"trialOutcome,omitempty"`

	Outcome           MatchOutcome `json:"outcome"`
	OutcomeReason     string       `json:"outcomeReason,omitempty"`
	OutcomeRecordedAt *time.Time   `json:"outcomeRecordedAt,omitempty"`

	FounderFeedback *MatchFeedback `json:"founderFeedback,omitempty"`
	BuilderFeedback *MatchFeedback `json:"builderFeedback,omitempty"`

	MatchedAt      time.Time  `json:"matchedAt"`
	FirstMessageAt *time.Time `json:"firstMessageAt,omitempty"`
	TrialStartedAt *time.Time `json:"trialStartedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastActivityAt time.Time  `json:"lastActivityAt"`

	IsSuccessfulHire bool        `json:"isSuccessfulHire"`
	Annotations      Annotations `json:"annotations"`

	// Version guards concurrent writers; bumped by the repository on every save.
	Version int `json:"version"`
}

// CurrentStatus returns the status recorded by the latest history entry.
func (m *Match) CurrentStatus() MatchStatus {
	if len(m.StatusHistory) == 0 {
		return m.Status
	}
	return m.StatusHistory[len(m.StatusHistory)-1].Status
}

// BothFeedbackSubmitted is derived, never stored.
func (m *Match) BothFeedbackSubmitted() bool {
	return m.FounderFeedback != nil && m.BuilderFeedback != nil
}

// FeedbackSide selects which party a feedback submission belongs to.
type FeedbackSide string

const (
	FeedbackSideFounder FeedbackSide = "founder"
	FeedbackSideBuilder FeedbackSide = "builder"
)
