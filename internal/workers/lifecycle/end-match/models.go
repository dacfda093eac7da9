// internal/workers/lifecycle/end-match/models.go
package endmatch

type Input struct {
	MatchID string `json:"matchId"`
	Outcome string `json:"outcome"` // DECLINED_FOUNDER, DECLINED_BUILDER, INACTIVE, POSITION_FILLED, or OTHER
	Actor   string `json:"actor"`
	Reason  string `json:"reason,omitempty"`
}

type Output struct {
	MatchID      string `json:"matchId"`
	MatchStatus  string `json:"matchStatus"`
	MatchOutcome string `json:"matchOutcome"`
	CompletedAt  string `json:"completedAt"` // ISO 8601
}
