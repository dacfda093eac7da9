// internal/models/scenario.go
package models

// ScenarioAnswer is one ordinal answer on the A-D scale.
type ScenarioAnswer string

const (
	AnswerA ScenarioAnswer = "A"
	AnswerB ScenarioAnswer = "B"
	AnswerC ScenarioAnswer = "C"
	AnswerD ScenarioAnswer = "D"
)

// Index returns the ordinal position of the answer, or -1 if unset/invalid.
func (a ScenarioAnswer) Index() int {
	switch a {
	case AnswerA:
		return 0
	case AnswerB:
		return 1
	case AnswerC:
		return 2
	case AnswerD:
		return 3
	}
	return -1
}

// ScenarioCount is the fixed number of questions in the scenario assessment.
const ScenarioCount = 6

// ScenarioResponse holds one user's latest answers to the six scenario
// questions. Only the latest set is kept; upserted by the user.
type ScenarioResponse struct {
	UserID    string         `json:"userId"`
	Scenario1 ScenarioAnswer `json:"scenario1"`
	Scenario2 ScenarioAnswer `json:"scenario2"`
	Scenario3 ScenarioAnswer `json:"scenario3"`
	Scenario4 ScenarioAnswer `json:"scenario4"`
	Scenario5 ScenarioAnswer `json:"scenario5"`
	Scenario6 ScenarioAnswer `json:"scenario6"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// Answers returns the six answers in question order.
func (r *ScenarioResponse) Answers() [ScenarioCount]ScenarioAnswer {
	return [ScenarioCount]ScenarioAnswer{
		r.Scenario1, r.Scenario2, r.Scenario3,
		r.Scenario4, r.Scenario5, r.Scenario6,
	}
}

// MissingAnswers lists the question names that have no valid answer.
func (r *ScenarioResponse) MissingAnswers() []string {
	names := [ScenarioCount]string{"scenario1", "scenario2", "scenario3", "scenario4", "scenario5", "scenario6"}
	var missing []string
	for i, a := range r.Answers() {
		if a.Index() < 0 {
			missing = append(missing, names[i])
		}
	}
	return missing
}

// IsComplete reports whether all six answers are present and valid.
func (r *ScenarioResponse) IsComplete() bool {
	return len(r.MissingAnswers()) == 0
}
