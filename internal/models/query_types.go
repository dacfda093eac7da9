// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeMatchStatusCounts  QueryType = "match_status_counts"
	QueryTypeMatchOutcomeCounts QueryType = "match_outcome_counts"
	QueryTypeSuccessStories     QueryType = "success_stories"
	QueryTypeMatchActivity      QueryType = "match_activity"
)
