// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Lookup errors
	ErrCodeMatchNotFound            ErrorCode = "MATCH_NOT_FOUND"
	ErrCodeScenarioResponseNotFound ErrorCode = "SCENARIO_RESPONSE_NOT_FOUND"

	// Conflict errors
	ErrCodeMatchAlreadyExists   ErrorCode = "MATCH_ALREADY_EXISTS"
	ErrCodeMatchVersionConflict ErrorCode = "MATCH_VERSION_CONFLICT"

	// Argument errors
	ErrCodeInvalidTrialOutcome        ErrorCode = "INVALID_TRIAL_OUTCOME"
	ErrCodeInvalidEndOutcome          ErrorCode = "INVALID_END_OUTCOME"
	ErrCodeIncompleteScenarioResponse ErrorCode = "INCOMPLETE_SCENARIO_RESPONSE"
	ErrCodeInvalidFeedbackRating      ErrorCode = "INVALID_FEEDBACK_RATING"
	ErrCodeMatchValidationFailed      ErrorCode = "MATCH_VALIDATION_FAILED"

	// Precondition errors
	ErrCodeIllegalStatusTransition ErrorCode = "ILLEGAL_STATUS_TRANSITION"

	// Storage / infrastructure errors
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType         ErrorCode = "INVALID_QUERY_TYPE"

	ErrCodeSearchIndexFailed ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMatchNotFoundError creates a non-retryable lookup error.
func NewMatchNotFoundError(matchID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchNotFound,
		Message:   "Match not found",
		Details:   fmt.Sprintf("matchId: %s", matchID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScenarioResponseNotFoundError creates a non-retryable lookup error.
// Absence of a scenario assessment is not a failure of the assessment itself;
// scoring callers translate this into an absent sub-score, never a zero.
func NewScenarioResponseNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScenarioResponseNotFound,
		Message:   "Scenario response not found for user",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchAlreadyExistsError creates a non-retryable conflict error for the
// (builder, opening) uniqueness constraint.
func NewMatchAlreadyExistsError(builderID, openingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchAlreadyExists,
		Message:   "Match already exists for builder and opening",
		Details:   fmt.Sprintf("builderId: %s, openingId: %s", builderID, openingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchVersionConflictError creates a retryable optimistic-lock error.
// Concurrent writers to the same match are linearized by retrying the losing write.
func NewMatchVersionConflictError(matchID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchVersionConflict,
		Message:   "Match was modified concurrently",
		Details:   fmt.Sprintf("matchId: %s", matchID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTrialOutcomeError creates a non-retryable argument error.
func NewInvalidTrialOutcomeError(outcome string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTrialOutcome,
		Message:   "Unsupported trial outcome token",
		Details:   fmt.Sprintf("outcome: %s", outcome),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidEndOutcomeError creates a non-retryable argument error.
func NewInvalidEndOutcomeError(outcome string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEndOutcome,
		Message:   "Unsupported end-match outcome token",
		Details:   fmt.Sprintf("outcome: %s", outcome),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncompleteScenarioResponseError creates a non-retryable argument error.
func NewIncompleteScenarioResponseError(userID string, missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIncompleteScenarioResponse,
		Message:   "Scenario response is missing answers",
		Details:   fmt.Sprintf("userId: %s, missing: %s", userID, strings.Join(missing, ",")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFeedbackRatingError creates a non-retryable argument error.
func NewInvalidFeedbackRatingError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFeedbackRating,
		Message:   "Feedback ratings must be between 1 and 5",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchValidationFailedError creates a non-retryable validation error.
func NewMatchValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchValidationFailed,
		Message:   "Match input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIllegalStatusTransitionError creates a non-retryable precondition error.
func NewIllegalStatusTransitionError(from, operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIllegalStatusTransition,
		Message:   "Operation is not legal in the current match status",
		Details:   fmt.Sprintf("status: %s, operation: %s", from, operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryTypeError creates a non-retryable invalid query type error.
func NewInvalidQueryTypeError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryType,
		Message:   "Unsupported query type",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable Elasticsearch index error.
func NewSearchIndexFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Elasticsearch index write failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable Elasticsearch query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMatchNotFound:              "MATCH_NOT_FOUND",
	ErrCodeScenarioResponseNotFound:   "SCENARIO_RESPONSE_NOT_FOUND",
	ErrCodeMatchAlreadyExists:         "MATCH_ALREADY_EXISTS",
	ErrCodeMatchVersionConflict:       "MATCH_VERSION_CONFLICT",
	ErrCodeInvalidTrialOutcome:        "INVALID_TRIAL_OUTCOME",
	ErrCodeInvalidEndOutcome:          "INVALID_END_OUTCOME",
	ErrCodeIncompleteScenarioResponse: "INCOMPLETE_SCENARIO_RESPONSE",
	ErrCodeInvalidFeedbackRating:      "INVALID_FEEDBACK_RATING",
	ErrCodeMatchValidationFailed:      "MATCH_VALIDATION_FAILED",
	ErrCodeIllegalStatusTransition:    "ILLEGAL_STATUS_TRANSITION",
	ErrCodeDatabaseConnectionFailed:   "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:       "DATABASE_INSERT_FAILED",
	ErrCodeQueryExecutionFailed:       "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:               "QUERY_TIMEOUT",
	ErrCodeInvalidQueryType:           "INVALID_QUERY_TYPE",
	ErrCodeSearchIndexFailed:          "SEARCH_INDEX_FAILED",
	ErrCodeSearchQueryFailed:          "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:     "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout:
		return 2

	case ErrCodeMatchVersionConflict:
		// The repository already retries the optimistic write internally; one
		// more pass at the job level covers sustained contention.
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "ALREADY_EXISTS") || strings.Contains(codeStr, "CONFLICT"):
		return "CONFLICT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "INCOMPLETE") || strings.Contains(codeStr, "VALIDATION"):
		return "INVALID_ARGUMENT"
	case strings.Contains(codeStr, "TRANSITION"):
		return "PRECONDITION_FAILED"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
