// internal/workers/notification/send-match-notification/models.go
package sendmatchnotification

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	RecipientTypeFounder = "founder"
	RecipientTypeBuilder = "builder"
)

type Input struct {
	RecipientID      string                 `json:"recipientId"`
	RecipientType    string                 `json:"recipientType"` // founder or builder
	NotificationType string                 `json:"notificationType"`
	MatchID          string                 `json:"matchId"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt"` // ISO 8601
}
