// internal/workers/lifecycle/mark-hired/models.go
package markhired

type Input struct {
	MatchID string `json:"matchId"`
	Actor   string `json:"actor"`
	Reason  string `json:"reason,omitempty"`
}

type Output struct {
	MatchID          string `json:"matchId"`
	MatchStatus      string `json:"matchStatus"`
	MatchOutcome     string `json:"matchOutcome"`
	IsSuccessfulHire bool   `json:"isSuccessfulHire"`
	CompletedAt      string `json:"completedAt"` // ISO 8601
}
