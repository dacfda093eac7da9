// internal/workers/matching/calculate-compatibility-score/handler_test.go
package calculatecompatibilityscore

import (
	"context"
	"testing"

	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		FounderUserID: "founder-001",
		BuilderUserID: "builder-001",
		OpeningID:     "opening-001",
		Founder: FounderRequirements{
			RequiredSkills:  []string{"go", "react", "sql"},
			CompensationMin: 80000,
			CompensationMax: 120000,
			HoursPerWeek:    40,
			Stage:           "seed",
			Location:        "Berlin",
		},
		Builder: BuilderPreferences{
			Skills:          []string{"Go", "SQL"},
			CompensationMin: 100000,
			HoursPerWeek:    40,
			PreferredStages: []string{"seed", "series-a"},
			Location:        "Berlin",
		},
	}
}

func scenarioRows(userID, answer string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "scenario_1", "scenario_2", "scenario_3",
		"scenario_4", "scenario_5", "scenario_6", "updated_at",
	}).AddRow(userID, answer, answer, answer, answer, answer, answer, "2025-05-01T10:00:00Z")
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.NewScenarioStore(sqlDB, nil, 600, logger.NewTestLogger(t))
	return NewHandler(LoadConfig(), store, logger.NewTestLogger(t)), mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_WithScenarioAssessment(t *testing.T) {
	handler, mock := newTestHandler(t)

	// Founder is looked up first, then the builder.
	mock.ExpectQuery(`SELECT user_id, scenario_1`).
		WithArgs("founder-001").
		WillReturnRows(scenarioRows("founder-001", "A"))
	mock.ExpectQuery(`SELECT user_id, scenario_1`).
		WithArgs("builder-001").
		WillReturnRows(scenarioRows("builder-001", "A"))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.True(t, output.ScenarioAssessed)

	// skills 2/3 = 66, all other dimensions 100:
	// 100*.30 + 100*.20 + 100*.15 + 66*.15 + 100*.10 + 100*.10 = 94.9 -> 95
	assert.Equal(t, 95, output.CompatibilityScore)
	assert.Equal(t, 66, output.CompatibilityBreakdown.Skills)
	if assert.NotNil(t, output.CompatibilityBreakdown.Scenario) {
		assert.Equal(t, 100, *output.CompatibilityBreakdown.Scenario)
	}
	assert.NotEmpty(t, output.CalculatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingScenarioRedistributes(t *testing.T) {
	handler, mock := newTestHandler(t)

	// Founder never took the assessment; builder lookup still happens.
	mock.ExpectQuery(`SELECT user_id, scenario_1`).
		WithArgs("founder-001").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectQuery(`SELECT user_id, scenario_1`).
		WithArgs("builder-001").
		WillReturnRows(scenarioRows("builder-001", "B"))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.False(t, output.ScenarioAssessed)
	assert.Nil(t, output.CompatibilityBreakdown.Scenario)
	assert.NotContains(t, output.AppliedWeights, "scenario")

	// (66*.15 + 100*(.30+.20+.15+.10)) / 0.9 = 94.33 -> 94
	assert.Equal(t, 94, output.CompatibilityScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingIDs(t *testing.T) {
	handler, mock := newTestHandler(t)

	input := createTestInput()
	input.BuilderUserID = ""

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Fit Calculator Tests
// ==========================

func TestHandler_CalculateSkillsFit(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name     string
		required []string
		offered  []string
		expected int
	}{
		{"full overlap", []string{"go", "sql"}, []string{"go", "sql", "react"}, 100},
		{"partial overlap", []string{"go", "react", "sql"}, []string{"go"}, 33},
		{"case insensitive", []string{"Go"}, []string{"gO"}, 100},
		{"no overlap", []string{"rust"}, []string{"go"}, 0},
		{"no requirements is neutral", nil, []string{"go"}, neutralFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.calculateSkillsFit(tt.required, tt.offered))
		})
	}
}

func TestHandler_CalculateCompensationFit(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name                            string
		founderMin, founderMax, builder int
		expected                        int
	}{
		{"within range", 80000, 120000, 100000, 100},
		{"below range is fine", 80000, 120000, 60000, 100},
		{"slightly over tapers", 80000, 100000, 110000, 90},
		{"far over floors at zero", 10000, 20000, 100000, 0},
		{"no ceiling is neutral", 0, 0, 100000, neutralFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.calculateCompensationFit(tt.founderMin, tt.founderMax, tt.builder))
		})
	}
}

func TestHandler_CalculateCommitmentFit(t *testing.T) {
	handler, _ := newTestHandler(t)

	assert.Equal(t, 100, handler.calculateCommitmentFit(40, 40))
	assert.Equal(t, 100, handler.calculateCommitmentFit(20, 40))
	assert.Equal(t, 50, handler.calculateCommitmentFit(40, 20))
	assert.Equal(t, neutralFit, handler.calculateCommitmentFit(0, 40))
}

func TestHandler_CalculateLocationFit(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name     string
		founder  FounderRequirements
		builder  BuilderPreferences
		expected int
	}{
		{"both remote", FounderRequirements{RemoteOK: true}, BuilderPreferences{RemoteOK: true}, 100},
		{"same city", FounderRequirements{Location: "Berlin"}, BuilderPreferences{Location: "berlin"}, 100},
		{"one side remote", FounderRequirements{Location: "Berlin", RemoteOK: true}, BuilderPreferences{Location: "Lisbon"}, 70},
		{"different cities onsite", FounderRequirements{Location: "Berlin"}, BuilderPreferences{Location: "Lisbon"}, 30},
		{"unknown locations neutral", FounderRequirements{}, BuilderPreferences{}, neutralFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.calculateLocationFit(&tt.founder, &tt.builder))
		})
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer sqlDB.Close()

	store := repository.NewScenarioStore(sqlDB, nil, 600, logger.NewNoOpLogger())
	handler := NewHandler(LoadConfig(), store, logger.NewNoOpLogger())
	input := createTestInput()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mock.ExpectQuery(`SELECT user_id, scenario_1`).
			WillReturnRows(scenarioRows("founder-001", "A"))
		mock.ExpectQuery(`SELECT user_id, scenario_1`).
			WillReturnRows(scenarioRows("builder-001", "B"))
		handler.Execute(context.Background(), input)
	}
}
