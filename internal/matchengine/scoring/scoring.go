// internal/matchengine/scoring/scoring.go

// Package scoring combines per-dimension compatibility sub-scores into the
// single weighted 0-100 score that gates match creation.
package scoring

import (
	"math"

	"foundingcircle-workers/internal/models"
)

// Fixed dimension weights; they sum to 1.0.
const (
	WeightCompensation = 0.30
	WeightCommitment   = 0.20
	WeightStage        = 0.15
	WeightSkills       = 0.15
	WeightScenario     = 0.10
	WeightLocation     = 0.10
)

// SubScores carries the six dimension sub-scores, each in [0,100]. The five
// non-scenario dimensions come from the profile-comparison collaborators;
// Scenario is nil when either party has not completed the assessment.
type SubScores struct {
	Skills       int
	Compensation int
	Commitment   int
	Stage        int
	Scenario     *int
	Location     int
}

// Result is the combined score plus the audit trail: the breakdown stored on
// the match and the weights actually applied (after any redistribution).
type Result struct {
	Score          int                           `json:"score"`
	Breakdown      models.CompatibilityBreakdown `json:"breakdown"`
	AppliedWeights map[string]float64            `json:"appliedWeights"`
}

// Combine produces the weighted total. When the scenario sub-score is absent
// its weight is redistributed proportionally across the remaining five
// dimensions, so an unassessed candidate is not penalized as if they scored 0.
func Combine(s SubScores) Result {
	skills := clamp(s.Skills)
	compensation := clamp(s.Compensation)
	commitment := clamp(s.Commitment)
	stage := clamp(s.Stage)
	location := clamp(s.Location)

	weights := map[string]float64{
		"compensation": WeightCompensation,
		"commitment":   WeightCommitment,
		"stage":        WeightStage,
		"skills":       WeightSkills,
		"location":     WeightLocation,
	}

	var scenarioScore *int
	if s.Scenario != nil {
		v := clamp(*s.Scenario)
		scenarioScore = &v
		weights["scenario"] = WeightScenario
	} else {
		// Redistribute proportionally: each remaining weight w becomes w/(1-0.10).
		scale := 1.0 / (1.0 - WeightScenario)
		for dim, w := range weights {
			weights[dim] = w * scale
		}
	}

	total := float64(compensation)*weights["compensation"] +
		float64(commitment)*weights["commitment"] +
		float64(stage)*weights["stage"] +
		float64(skills)*weights["skills"] +
		float64(location)*weights["location"]
	if scenarioScore != nil {
		total += float64(*scenarioScore) * weights["scenario"]
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return Result{
		Score: score,
		Breakdown: models.CompatibilityBreakdown{
			Skills:       skills,
			Compensation: compensation,
			Commitment:   commitment,
			Stage:        stage,
			Scenario:     scenarioScore,
			Location:     location,
		},
		AppliedWeights: weights,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
