// internal/workers/lifecycle/link-conversation/models.go
package linkconversation

type Input struct {
	MatchID        string `json:"matchId"`
	ConversationID string `json:"conversationId"`
	Actor          string `json:"actor"`
}

type Output struct {
	MatchID             string `json:"matchId"`
	ConversationID      string `json:"conversationId"`
	ConversationStarted bool   `json:"conversationStarted"`
	FirstMessageAt      string `json:"firstMessageAt,omitempty"` // ISO 8601
}
