// internal/workers/matching/calculate-compatibility-score/models.go
package calculatecompatibilityscore

import "foundingcircle-workers/internal/models"

// FounderRequirements is what the founder's opening asks for, as correlated
// upstream by the matching workflow.
type FounderRequirements struct {
	RequiredSkills  []string `json:"requiredSkills"`
	CompensationMin int      `json:"compensationMin"`
	CompensationMax int      `json:"compensationMax"`
	HoursPerWeek    int      `json:"hoursPerWeek"`
	Stage           string   `json:"stage"`
	Location        string   `json:"location"`
	RemoteOK        bool     `json:"remoteOk"`
}

// BuilderPreferences is the builder's side of the comparison.
type BuilderPreferences struct {
	Skills          []string `json:"skills"`
	CompensationMin int      `json:"compensationMin"`
	HoursPerWeek    int      `json:"hoursPerWeek"`
	PreferredStages []string `json:"preferredStages"`
	Location        string   `json:"location"`
	RemoteOK        bool     `json:"remoteOk"`
}

type Input struct {
	FounderUserID string              `json:"founderUserId"`
	BuilderUserID string              `json:"builderUserId"`
	OpeningID     string              `json:"openingId"`
	Founder       FounderRequirements `json:"founder"`
	Builder       BuilderPreferences  `json:"builder"`
}

type Output struct {
	CompatibilityScore     int                           `json:"compatibilityScore"`
	CompatibilityBreakdown models.CompatibilityBreakdown `json:"compatibilityBreakdown"`
	ScenarioAssessed       bool                          `json:"scenarioAssessed"`
	AppliedWeights         map[string]float64            `json:"appliedWeights"`
	CalculatedAt           string                        `json:"calculatedAt"` // ISO 8601
}
