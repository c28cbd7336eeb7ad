// internal/workers/matching/get-matches/handler_test.go
package getmatches

import (
	"context"
	"errors"
	"testing"

	"scholarship-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{}
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

func matchColumns() []string {
	return []string{
		"scholarship_id", "title", "organization", "scholarship_type",
		"match_score", "match_reasons", "updated_at",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(matchColumns()).
		AddRow("sch-1", "STEM Futures", "Tech Fund", "stem", 85, []byte(`["STEM career goals"]`), "2025-06-01T12:00:00Z").
		AddRow("sch-2", "First Gen Award", "Community Org", "first-gen", 60, []byte(`["First-generation college student support"]`), "2025-06-01T12:00:00Z")

	mock.ExpectQuery("SELECT m.scholarship_id, s.title").
		WithArgs("user-001", 50).
		WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-001"})

	assert.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "sch-1", output.Matches[0].ScholarshipID)
	assert.Equal(t, 85, output.Matches[0].MatchScore)
	assert.Equal(t, []string{"STEM career goals"}, output.Matches[0].MatchReasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CustomLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT m.scholarship_id, s.title").
		WithArgs("user-002", 5).
		WillReturnRows(sqlmock.NewRows(matchColumns()))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-002", Limit: 5})

	assert.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.NotNil(t, output.Matches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DefaultLimitWhenNonPositive(t *testing.T) {
	for _, limit := range []int{0, -3} {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT m.scholarship_id, s.title").
			WithArgs("user-003", 50).
			WillReturnRows(sqlmock.NewRows(matchColumns()))

		handler := NewHandler(createTestConfig(), db, newTestLogger(t))
		_, err = handler.Execute(context.Background(), &Input{UserID: "user-003", Limit: limit})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

func TestHandler_Execute_MalformedReasonsFallBackToEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(matchColumns()).
		AddRow("sch-1", "Award", "Org", "need-based", 40, []byte("{broken"), "2025-06-01T12:00:00Z")

	mock.ExpectQuery("SELECT m.scholarship_id, s.title").
		WithArgs("user-004", 50).
		WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-004"})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, []string{}, output.Matches[0].MatchReasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT m.scholarship_id, s.title").
		WillReturnError(errors.New("relation does not exist"))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-005"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMatchQueryFailed))
	assert.Nil(t, output)
}

func TestHandler_EdgeCases(t *testing.T) {
	t.Run("missing userId rejected before query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		handler := NewHandler(createTestConfig(), db, newTestLogger(t))
		output, err := handler.Execute(context.Background(), &Input{})

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrMatchQueryFailed))
		assert.Nil(t, output)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matches yields empty slice not nil", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT m.scholarship_id, s.title").
			WithArgs("user-006", 50).
			WillReturnRows(sqlmock.NewRows(matchColumns()))

		handler := NewHandler(createTestConfig(), db, newTestLogger(t))
		output, err := handler.Execute(context.Background(), &Input{UserID: "user-006"})

		assert.NoError(t, err)
		assert.NotNil(t, output.Matches)
		assert.Equal(t, 0, output.Count)
	})
}
