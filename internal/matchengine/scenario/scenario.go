// internal/matchengine/scenario/scenario.go

// Package scenario scores working-style alignment between two parties from
// their answers to the six-question scenario assessment.
package scenario

import (
	"math"

	"foundingcircle-workers/internal/models"
)

const (
	PointsExact    = 10
	PointsAdjacent = 5
	PointsOpposite = 0

	maxPoints = models.ScenarioCount * PointsExact
)

// PairClass labels how close two answers sit on the A-D ordinal scale.
type PairClass string

const (
	ClassExact    PairClass = "exact"
	ClassAdjacent PairClass = "adjacent"
	ClassOpposite PairClass = "opposite"
)

// PairScore records the scoring of a single scenario question for auditability.
type PairScore struct {
	Scenario      int                   `json:"scenario"` // 1-based question number
	FounderAnswer models.ScenarioAnswer `json:"founderAnswer"`
	BuilderAnswer models.ScenarioAnswer `json:"builderAnswer"`
	Points        int                   `json:"points"`
	Class         PairClass             `json:"class"`
}

// Result is the outcome of a scenario comparison. Assessed is false when
// either party's response set is missing or incomplete; Score is nil in that
// case because absence of data is not evidence of incompatibility.
type Result struct {
	Assessed bool        `json:"assessed"`
	Score    *int        `json:"score,omitempty"` // normalized 0-100
	Pairs    []PairScore `json:"pairs,omitempty"`
}

// ScorePair classifies one answer pair on the ordinal scale and awards points.
func ScorePair(x, y models.ScenarioAnswer) (int, PairClass) {
	dist := x.Index() - y.Index()
	if dist < 0 {
		dist = -dist
	}
	switch dist {
	case 0:
		return PointsExact, ClassExact
	case 1:
		return PointsAdjacent, ClassAdjacent
	default:
		return PointsOpposite, ClassOpposite
	}
}

// Compare produces the deterministic scenario compatibility of two complete
// response sets, or a not-yet-assessed result if either set is nil or
// incomplete.
func Compare(founder, builder *models.ScenarioResponse) Result {
	if founder == nil || builder == nil || !founder.IsComplete() || !builder.IsComplete() {
		return Result{Assessed: false}
	}

	fAnswers := founder.Answers()
	bAnswers := builder.Answers()

	sum := 0
	pairs := make([]PairScore, 0, models.ScenarioCount)
	for i := 0; i < models.ScenarioCount; i++ {
		points, class := ScorePair(fAnswers[i], bAnswers[i])
		sum += points
		pairs = append(pairs, PairScore{
			Scenario:      i + 1,
			FounderAnswer: fAnswers[i],
			BuilderAnswer: bAnswers[i],
			Points:        points,
			Class:         class,
		})
	}

	score := int(math.Round(float64(sum) / float64(maxPoints) * 100))
	return Result{
		Assessed: true,
		Score:    &score,
		Pairs:    pairs,
	}
}
