// internal/workers/notification/send-match-summary/handler_test.go
package sendmatchsummary

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "noreply@scholarships.example.com",
		AWSRegion:    "us-east-1",
	}
}

func createTestInput(matchCount int) *Input {
	return &Input{
		UserID:     "user-001",
		MatchCount: matchCount,
		TopMatches: []TopMatch{
			{Title: "STEM Futures", Organization: "Tech Fund", MatchScore: 85},
			{Title: "First Gen Award", Organization: "Community Org", MatchScore: 60},
		},
		Priority: "high",
	}
}

func createTestHandler(t *testing.T, config *Config, db *sql.DB, sesMock SESService, snsMock SNSService) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		logger:      newTestLogger(t),
		sesClient:   sesMock,
		snsClient:   snsMock,
		templateMap: loadTemplates(),
	}
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

func expectRecipientLookup(mock sqlmock.Sqlmock, email, phone string) {
	mock.ExpectQuery(`SELECT COALESCE\(email, ''\), COALESCE\(phone, ''\) FROM users WHERE id = \$1`).
		WithArgs("user-001").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		emailEnabled   bool
		smsEnabled     bool
		priority       string
		expectedStatus string
	}{
		{"email and SMS for high priority", true, true, "high", StatusSent},
		{"email only", true, false, "medium", StatusSent},
		{"SMS only for high priority", false, true, "high", StatusSent},
		{"no channel fires for medium priority SMS-only", false, true, "medium", StatusDisabled},
		{"everything disabled", false, false, "high", StatusDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			expectRecipientLookup(mock, "student@example.com", "+15550100")

			mockSES := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					assert.Equal(t, "student@example.com", params.Destination.ToAddresses[0])
					assert.Equal(t, "noreply@scholarships.example.com", *params.Source)
					return &ses.SendEmailOutput{}, nil
				},
			}
			mockSNS := &MockSNSService{
				PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					assert.Equal(t, "+15550100", *params.PhoneNumber)
					return &sns.PublishOutput{}, nil
				},
			}

			config := createTestConfig()
			config.EmailEnabled = tt.emailEnabled
			config.SMSEnabled = tt.smsEnabled

			handler := createTestHandler(t, config, db, mockSES, mockSNS)

			input := createTestInput(2)
			input.Priority = tt.priority
			output, err := handler.Execute(context.Background(), input)

			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.Equal(t, tt.expectedStatus, output.Status)
			assert.NotEmpty(t, output.NotificationID)
			assert.NotEmpty(t, output.SentAt)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_TemplateSelection(t *testing.T) {
	tests := []struct {
		name            string
		matchCount      int
		expectedSubject string
	}{
		{"matches found uses ready template", 3, "Your Scholarship Matches Are Ready"},
		{"zero matches uses no-matches template", 0, "Scholarship Search Update"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			expectRecipientLookup(mock, "student@example.com", "")

			var sentSubject string
			mockSES := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					sentSubject = *params.Message.Subject.Data
					return &ses.SendEmailOutput{}, nil
				},
			}

			handler := createTestHandler(t, createTestConfig(), db, mockSES, &MockSNSService{})

			input := createTestInput(tt.matchCount)
			output, err := handler.Execute(context.Background(), input)

			assert.NoError(t, err)
			assert.Equal(t, StatusSent, output.Status)
			assert.Equal(t, tt.expectedSubject, sentSubject)
		})
	}
}

func TestHandler_Execute_BodyContainsTopMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectRecipientLookup(mock, "student@example.com", "")

	var sentBody string
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sentBody = *params.Message.Body.Text.Data
			return &ses.SendEmailOutput{}, nil
		},
	}

	handler := createTestHandler(t, createTestConfig(), db, mockSES, &MockSNSService{})

	output, err := handler.Execute(context.Background(), createTestInput(2))

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, strings.Contains(sentBody, "STEM Futures"))
	assert.True(t, strings.Contains(sentBody, "2 scholarships"))
}

func TestHandler_Execute_RecipientNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(email, ''\), COALESCE\(phone, ''\) FROM users WHERE id = \$1`).
		WithArgs("user-001").
		WillReturnError(sql.ErrNoRows)

	handler := createTestHandler(t, createTestConfig(), db, &MockSESService{}, &MockSNSService{})

	output, err := handler.Execute(context.Background(), createTestInput(2))

	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectRecipientLookup(mock, "student@example.com", "")

	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("SES throttled")
		},
	}

	handler := createTestHandler(t, createTestConfig(), db, mockSES, &MockSNSService{})

	output, err := handler.Execute(context.Background(), createTestInput(2))

	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestHandler_Execute_UnknownTemplateType(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectRecipientLookup(mock, "student@example.com", "")

	handler := createTestHandler(t, createTestConfig(), db, &MockSESService{}, &MockSNSService{})

	input := createTestInput(2)
	input.NotificationType = "carrier_pigeon"
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)
}

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		expected string
	}{
		{
			name:     "replaces known placeholders",
			template: "Found {{matchCount}} matches for {{userId}}",
			data:     map[string]interface{}{"matchCount": 3, "userId": "user-1"},
			expected: "Found 3 matches for user-1",
		},
		{
			name:     "strips unresolved placeholders",
			template: "Hello {{name}}, you have {{matchCount}} matches",
			data:     map[string]interface{}{"matchCount": 2},
			expected: "Hello , you have 2 matches",
		},
		{
			name:     "no placeholders",
			template: "Static text",
			data:     map[string]interface{}{},
			expected: "Static text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(tt.template, tt.data))
		})
	}
}

func TestFormatTopMatches(t *testing.T) {
	assert.Equal(t, "", formatTopMatches(nil))

	formatted := formatTopMatches([]TopMatch{
		{Title: "Award A", Organization: "Org A", MatchScore: 90},
		{Title: "Award B", Organization: "Org B", MatchScore: 45},
	})
	assert.Equal(t, "- Award A (Org A): 90\n- Award B (Org B): 45", formatted)
}
