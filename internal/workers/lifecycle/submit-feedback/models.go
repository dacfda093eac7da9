// internal/workers/lifecycle/submit-feedback/models.go
package submitfeedback

import "foundingcircle-workers/internal/models"

type Input struct {
	MatchID  string                 `json:"matchId"`
	Side     string                 `json:"side"` // founder or builder
	Ratings  models.FeedbackRatings `json:"ratings"`
	Comments string                 `json:"comments,omitempty"`
}

type Output struct {
	MatchID               string `json:"matchId"`
	Side                  string `json:"side"`
	BothFeedbackSubmitted bool   `json:"bothFeedbackSubmitted"`
	SubmittedAt           string `json:"submittedAt"` // ISO 8601
}
