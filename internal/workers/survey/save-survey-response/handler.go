// internal/workers/survey/save-survey-response/handler.go
package savesurveyresponse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "save-survey-response"
)

var (
	ErrSurveySaveFailed = errors.New("SURVEY_SAVE_FAILED")
)

type Handler struct {
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "SURVEY_SAVE_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrSurveySaveFailed)
	}

	responseID := uuid.New().String()
	savedAt := time.Now().UTC().Format(time.RFC3339)

	breakdownJSON, err := json.Marshal(input.IndexBreakdown)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal index breakdown: %v", ErrSurveySaveFailed, err)
	}

	// One survey response per user: resubmission overwrites in place and the
	// original created_at survives.
	var storedID string
	err = h.db.QueryRowContext(ctx, `
		INSERT INTO survey_responses (
			id, user_id, income_level, device_access, internet_access,
			language_support, learning_needs, gpa_range, education_level,
			location, barriers, goals, inclusivity_index, index_breakdown,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			income_level = EXCLUDED.income_level,
			device_access = EXCLUDED.device_access,
			internet_access = EXCLUDED.internet_access,
			language_support = EXCLUDED.language_support,
			learning_needs = EXCLUDED.learning_needs,
			gpa_range = EXCLUDED.gpa_range,
			education_level = EXCLUDED.education_level,
			location = EXCLUDED.location,
			barriers = EXCLUDED.barriers,
			goals = EXCLUDED.goals,
			inclusivity_index = EXCLUDED.inclusivity_index,
			index_breakdown = EXCLUDED.index_breakdown,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		responseID,
		input.UserID,
		input.SurveyData.IncomeLevel,
		input.SurveyData.DeviceAccess,
		input.SurveyData.InternetAccess,
		input.SurveyData.LanguageSupport,
		input.SurveyData.LearningNeeds,
		input.SurveyData.GPARange,
		input.SurveyData.EducationLevel,
		input.SurveyData.Location,
		input.SurveyData.Barriers,
		input.SurveyData.Goals,
		input.InclusivityIndex,
		breakdownJSON,
		savedAt,
	).Scan(&storedID)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert failed: %v", ErrSurveySaveFailed, err)
	}

	// Audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"userId":           input.UserID,
		"inclusivityIndex": input.InclusivityIndex,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		auditDetailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"survey_response_saved",
		"survey_response",
		storedID,
		auditDetailsJSON,
		savedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":      err,
			"responseId": storedID,
		})
	}

	h.logger.Info("survey response saved", map[string]interface{}{
		"responseId":       storedID,
		"userId":           input.UserID,
		"inclusivityIndex": input.InclusivityIndex,
	})

	return &Output{
		ResponseID: storedID,
		SavedAt:    savedAt,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
