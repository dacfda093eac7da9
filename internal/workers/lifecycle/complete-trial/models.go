// internal/workers/lifecycle/complete-trial/models.go
package completetrial

type Input struct {
	MatchID string `json:"matchId"`
	Outcome string `json:"outcome"` // SUCCESS, UNSUCCESSFUL, or CANCELLED
	Actor   string `json:"actor"`
	Reason  string `json:"reason,omitempty"`
}

type Output struct {
	MatchID      string `json:"matchId"`
	MatchStatus  string `json:"matchStatus"`
	TrialOutcome string `json:"trialOutcome"`
	MatchOutcome string `json:"matchOutcome"`
	CompletedAt  string `json:"completedAt,omitempty"` // ISO 8601; empty on cancellation
}
