// internal/workers/data-access/index-match-analytics/models.go
package indexmatchanalytics

type Input struct {
	MatchID string `json:"matchId"`
}

// AnalyticsDocument is the flattened projection indexed for dashboards.
// It carries no free-text feedback comments, only structure.
type AnalyticsDocument struct {
	MatchID            string `json:"matchId"`
	FounderUserID      string `json:"founderUserId"`
	BuilderUserID      string `json:"builderUserId"`
	OpeningID          string `json:"openingId"`
	Status             string `json:"status"`
	Outcome            string `json:"outcome"`
	CompatibilityScore int    `json:"compatibilityScore"`
	ScenarioScore      *int   `json:"scenarioScore,omitempty"`
	ConversationCount  int    `json:"conversationCount"`
	HadTrial           bool   `json:"hadTrial"`
	TrialOutcome       string `json:"trialOutcome,omitempty"`
	IsSuccessfulHire   bool   `json:"isSuccessfulHire"`
	StatusChanges      int    `json:"statusChanges"`
	DaysToCompletion   *int   `json:"daysToCompletion,omitempty"`
	MatchedAt          string `json:"matchedAt"`
	CompletedAt        string `json:"completedAt,omitempty"`
	IndexedAt          string `json:"indexedAt"`
}

type Output struct {
	MatchID   string `json:"matchId"`
	Index     string `json:"index"`
	IndexedAt string `json:"indexedAt"` // ISO 8601
}
