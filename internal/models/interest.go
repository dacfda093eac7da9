// internal/models/interest.go
package models

// InterestDirection says which side expressed the interest.
type InterestDirection string

const (
	InterestBuilderToOpening InterestDirection = "builder_to_opening"
	InterestFounderToBuilder InterestDirection = "founder_to_builder"
)

// Interest is a one-sided expression of interest. Two correlated interests
// (one per direction) become a match; correlation happens upstream in the
// workflow, the create-match-record worker only receives the mutual pair.
type Interest struct {
	ID               string            `json:"id"`
	Direction        InterestDirection `json:"direction"`
	FounderUserID    string            `json:"founderUserId"`
	FounderProfileID string            `json:"founderProfileId"`
	BuilderUserID    string            `json:"builderUserId"`
	BuilderProfileID string            `json:"builderProfileId"`
	OpeningID        string            `json:"openingId"`
	CreatedAt        string            `json:"createdAt,omitempty"`
}
