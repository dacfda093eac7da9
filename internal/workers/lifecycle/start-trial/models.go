// internal/workers/lifecycle/start-trial/models.go
package starttrial

type Input struct {
	MatchID string `json:"matchId"`
	TrialID string `json:"trialId"`
	Actor   string `json:"actor"`
}

type Output struct {
	MatchID        string `json:"matchId"`
	MatchStatus    string `json:"matchStatus"`
	TrialID        string `json:"trialId"`
	TrialStartedAt string `json:"trialStartedAt"` // ISO 8601
}
