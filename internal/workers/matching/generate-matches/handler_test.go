// internal/workers/matching/generate-matches/handler_test.go
package generatematches

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		ScoreThreshold:  30,
		CatalogCacheTTL: 5 * time.Minute,
	}
}

func intPtr(v int) *int {
	return &v
}

func answersPtr(a models.SurveyAnswers) *models.SurveyAnswers {
	return &a
}

func createTestInput(userID string, index int, answers models.SurveyAnswers) *Input {
	return &Input{
		UserID:           userID,
		InclusivityIndex: intPtr(index),
		SurveyData:       answersPtr(answers),
	}
}

type fakeCatalog struct {
	scholarships []models.Scholarship
	err          error
	calls        int
}

func (f *fakeCatalog) FetchActiveScholarships(ctx context.Context) ([]models.Scholarship, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scholarships, nil
}

type fakeMatchStore struct {
	upserted [][]models.ScholarshipMatch
	err      error
}

func (f *fakeMatchStore) UpsertMatches(ctx context.Context, matches []models.ScholarshipMatch) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, matches)
	return nil
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func needBasedScholarship(id string, incomePoints int) models.Scholarship {
	return models.Scholarship{
		ID:              id,
		Title:           "Need Based Award " + id,
		Organization:    "Test Foundation",
		ScholarshipType: models.TypeNeedBased,
		MatchingCriteria: models.MatchingCriteria{
			"income_level": {"low": incomePoints},
		},
		IsActive: true,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{
			needBasedScholarship("sch-1", 10), // 30 + 10 = 40, kept
			{ID: "sch-2", ScholarshipType: models.TypeAthletics}, // 0, dropped
		},
	}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	input := createTestInput("user-001", 100, models.SurveyAnswers{IncomeLevel: "low"})
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, 1, output.MatchCount)
	assert.NotEmpty(t, output.GeneratedAt)

	assert.Len(t, store.upserted, 1)
	batch := store.upserted[0]
	assert.Len(t, batch, 1)
	assert.Equal(t, "user-001", batch[0].UserID)
	assert.Equal(t, "sch-1", batch[0].ScholarshipID)
	assert.Equal(t, 40, batch[0].MatchScore)
}

func TestHandler_Execute_ThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		name          string
		incomePoints  int
		expectedCount int
	}{
		{"score exactly 30 is dropped", 0, 0},  // 30 + 0
		{"score 31 is kept", 1, 1},             // 30 + 1
		{"score 29 is dropped", -1, 0},         // clamp makes no difference here
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{
				scholarships: []models.Scholarship{needBasedScholarship("sch-1", tt.incomePoints)},
			}
			store := &fakeMatchStore{}
			handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

			input := createTestInput("user-002", 100, models.SurveyAnswers{IncomeLevel: "low"})
			output, err := handler.Execute(context.Background(), input)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCount, output.MatchCount)
			if tt.expectedCount == 0 {
				assert.Empty(t, store.upserted)
			}
		})
	}
}

func TestHandler_Execute_EmptyCatalog(t *testing.T) {
	catalog := &fakeCatalog{scholarships: []models.Scholarship{}}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	input := createTestInput("user-003", 80, models.SurveyAnswers{})
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 0, output.MatchCount)
	assert.Empty(t, store.upserted, "no persistence call for an empty catalog")
}

func TestHandler_Execute_NoScoresAboveThreshold(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{
			{ID: "sch-1", ScholarshipType: models.TypeAthletics},
			{ID: "sch-2", ScholarshipType: models.TypeArts},
		},
	}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput("user-004", 100, models.SurveyAnswers{}))

	assert.NoError(t, err)
	assert.Equal(t, 0, output.MatchCount)
	assert.Empty(t, store.upserted)
}

func TestHandler_Execute_CatalogFetchFailure(t *testing.T) {
	catalog := &fakeCatalog{err: stderrors.New("connection refused")}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput("user-005", 80, models.SurveyAnswers{}))

	assert.Error(t, err)
	assert.Nil(t, output)

	var stdErr *errors.StandardError
	assert.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeCatalogFetchFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_PersistFailure(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{needBasedScholarship("sch-1", 10)},
	}
	store := &fakeMatchStore{err: stderrors.New("deadlock detected")}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	input := createTestInput("user-006", 100, models.SurveyAnswers{IncomeLevel: "low"})
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)

	var stdErr *errors.StandardError
	assert.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeMatchPersistFailed, stdErr.Code)
	assert.NotEqual(t, errors.ErrCodeCatalogFetchFailed, stdErr.Code)
}

func TestHandler_Execute_InputValidation(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing userId", &Input{InclusivityIndex: intPtr(50), SurveyData: answersPtr(models.SurveyAnswers{})}},
		{"missing inclusivityIndex", &Input{UserID: "user-1", SurveyData: answersPtr(models.SurveyAnswers{})}},
		{"missing surveyData", &Input{UserID: "user-1", InclusivityIndex: intPtr(50)}},
		{"everything missing", &Input{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{}
			store := &fakeMatchStore{}
			handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			assert.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, 0, catalog.calls, "catalog must not be touched for invalid input")

			var stdErr *errors.StandardError
			assert.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, errors.ErrCodeMatchInputInvalid, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_PresentZeroIndexIsValid(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{
			{
				ID:              "sch-merit",
				ScholarshipType: models.TypeMeritBased,
				MatchingCriteria: models.MatchingCriteria{
					"gpa_range": {"3.5-4.0": 15},
				},
			},
		},
	}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	// index 0 is present, so merit-based (index < 40) fires: 20 + 15 = 35
	input := createTestInput("user-007", 0, models.SurveyAnswers{GPARange: "3.5-4.0"})
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 1, output.MatchCount)
	assert.Equal(t, 35, store.upserted[0][0].MatchScore)
}

func TestHandler_Execute_ReasonsAttachedToMatches(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{
			{
				ID:              "sch-fg",
				ScholarshipType: models.TypeFirstGen,
				MatchingCriteria: models.MatchingCriteria{
					"income_level": {"low": 10},
				},
				TargetDemographics: models.TargetDemographics{
					"income_levels": {"low"},
				},
			},
		},
	}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	input := createTestInput("user-008", 50, models.SurveyAnswers{IncomeLevel: "low"})
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 1, output.MatchCount)
	assert.Equal(t, []string{
		"Income level match",
		"First-generation college student support",
	}, store.upserted[0][0].MatchReasons)
}

func TestHandler_Execute_SingleBatchForAllMatches(t *testing.T) {
	catalog := &fakeCatalog{
		scholarships: []models.Scholarship{
			needBasedScholarship("sch-1", 10),
			needBasedScholarship("sch-2", 20),
			needBasedScholarship("sch-3", 5),
		},
	}
	store := &fakeMatchStore{}
	handler := NewHandler(createTestConfig(), catalog, store, newTestLogger(t))

	input := createTestInput("user-009", 100, models.SurveyAnswers{IncomeLevel: "low"})
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 3, output.MatchCount)
	assert.Len(t, store.upserted, 1, "all matches go out in one batch")
	assert.Len(t, store.upserted[0], 3)
}
