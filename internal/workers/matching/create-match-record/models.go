// internal/workers/matching/create-match-record/models.go
package creatematchrecord

import "foundingcircle-workers/internal/models"

type Input struct {
	BuilderInterest        models.Interest               `json:"builderInterest"`
	FounderInterest        models.Interest               `json:"founderInterest"`
	CompatibilityScore     int                           `json:"compatibilityScore"`
	CompatibilityBreakdown models.CompatibilityBreakdown `json:"compatibilityBreakdown"`
	Annotations            models.Annotations            `json:"annotations"`
}

type Output struct {
	MatchID            string `json:"matchId"`
	MatchStatus        string `json:"matchStatus"`
	CompatibilityScore int    `json:"compatibilityScore"`
	MatchedAt          string `json:"matchedAt"` // ISO 8601
}
