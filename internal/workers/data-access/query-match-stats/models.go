// internal/workers/data-access/query-match-stats/models.go
package querymatchstats

type Parameters struct {
	Limit     int `json:"limit,omitempty"`
	SinceDays int `json:"sinceDays,omitempty"`
}

type Input struct {
	QueryType  string     `json:"queryType"`
	Parameters Parameters `json:"parameters"`
}

type Output struct {
	QueryType  string      `json:"queryType"`
	Results    interface{} `json:"results"`
	Count      int         `json:"count"`
	ExecutedAt string      `json:"executedAt"` // ISO 8601
}
