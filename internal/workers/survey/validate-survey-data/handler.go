// internal/workers/survey/validate-survey-data/handler.go
package validatesurveydata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-survey-data"
)

var (
	ErrSurveyValidationFailed = errors.New("SURVEY_VALIDATION_FAILED")
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
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
		h.failJob(client, job, "PARSE_ERROR", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "SURVEY_VALIDATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	data := input.SurveyData
	if data == nil {
		data = make(map[string]interface{})
	}

	validated := make(map[string]interface{})
	var validationErrors []ValidationError

	// Structural check via JSON schema first, then enum membership
	schemaResult, err := validation.ValidateSurveyAnswers(data)
	if err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}
	for _, schemaErr := range schemaResult.Errors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   schemaErr.Field,
			Code:    schemaErr.Code,
			Message: schemaErr.Message,
		})
	}

	for _, field := range scoredFields {
		raw, ok := data[field]
		if !ok {
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Code:    "MISSING_REQUIRED",
				Message: fmt.Sprintf("%s is required", field),
			})
			continue
		}

		value, ok := raw.(string)
		if !ok {
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Code:    "INVALID_TYPE",
				Message: fmt.Sprintf("%s must be a string, got %T", field, raw),
			})
			continue
		}

		if !contains(allowedValues[field], value) {
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Code:    "INVALID_VALUE",
				Message: fmt.Sprintf("%s value %q is not one of %v", field, value, allowedValues[field]),
			})
			continue
		}

		validated[field] = value
	}

	for _, field := range freeTextFields {
		if raw, ok := data[field]; ok {
			if value, ok := raw.(string); ok {
				validated[field] = value
			}
		}
	}

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"userId":     input.UserID,
		"isValid":    isValid,
		"errorCount": len(validationErrors),
	})

	if !isValid {
		return nil, fmt.Errorf("%w: %d validation errors", ErrSurveyValidationFailed, len(validationErrors))
	}

	return &Output{
		IsValid:          true,
		ValidatedData:    validated,
		ValidationErrors: []ValidationError{},
	}, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
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
