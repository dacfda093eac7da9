// internal/workers/lifecycle/update-message-activity/models.go
package updatemessageactivity

type Input struct {
	MatchID       string `json:"matchId"`
	MessageCount  int    `json:"messageCount"`
	LastMessageAt string `json:"lastMessageAt,omitempty"` // ISO 8601
}

type Output struct {
	MatchID        string `json:"matchId"`
	MessageCount   int    `json:"messageCount"`
	LastActivityAt string `json:"lastActivityAt"` // ISO 8601
}
