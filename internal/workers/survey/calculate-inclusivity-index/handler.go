// internal/workers/survey/calculate-inclusivity-index/handler.go
package calculateinclusivityindex

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-inclusivity-index"
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
		h.failJob(client, job, "INDEX_CALCULATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	answers := input.SurveyData

	index := ComputeIndex(answers)
	breakdown := ComputeBreakdown(answers)

	h.logger.Info("inclusivity index calculated", map[string]interface{}{
		"userId":    input.UserID,
		"index":     index,
		"breakdown": breakdown,
	})

	return &Output{
		InclusivityIndex: index,
		IndexBreakdown:   breakdown,
	}, nil
}

// ComputeIndex sums the five category scores. The category points are chosen
// so the maximum sum is exactly 100 (25+20+20+20+15), so the percentage
// rescale does not change the value.
func ComputeIndex(answers models.SurveyAnswers) int {
	sum := incomeScore(answers.IncomeLevel) +
		deviceScore(answers.DeviceAccess) +
		internetScore(answers.InternetAccess) +
		languageScore(answers.LanguageSupport) +
		learningScore(answers.LearningNeeds)

	return int(math.Round(float64(sum) / 100.0 * 100.0))
}

// ComputeBreakdown derives the four sub-scores with its own point tables.
// These scales differ from the index's tables and must not be unified.
func ComputeBreakdown(answers models.SurveyAnswers) models.IndexBreakdown {
	access := int(math.Round(float64(deviceScore(answers.DeviceAccess)+internetScore(answers.InternetAccess)) / 40.0 * 25.0))

	financial := 10
	switch answers.IncomeLevel {
	case "low":
		financial = 25
	case "moderate":
		financial = 20
	case "middle":
		financial = 15
	}

	language := 10
	switch answers.LanguageSupport {
	case "need-translation":
		language = 25
	case "english-second":
		language = 20
	case "multilingual":
		language = 15
	}

	academic := 10
	switch answers.LearningNeeds {
	case "adhd", "dyslexia", "other":
		academic = 25
	}

	return models.IndexBreakdown{
		Access:    access,
		Financial: financial,
		Language:  language,
		Academic:  academic,
	}
}

func incomeScore(value string) int {
	switch value {
	case "low":
		return 25
	case "moderate":
		return 20
	case "middle":
		return 15
	default:
		return 10
	}
}

func deviceScore(value string) int {
	switch value {
	case "smartphone-only":
		return 20
	case "smartphone-tablet":
		return 15
	case "smartphone-computer":
		return 10
	default:
		return 5
	}
}

func internetScore(value string) int {
	switch value {
	case "limited":
		return 20
	case "mobile-only":
		return 15
	case "home-wifi":
		return 10
	default:
		return 5
	}
}

func languageScore(value string) int {
	switch value {
	case "need-translation":
		return 20
	case "english-second":
		return 15
	case "multilingual":
		return 10
	default:
		return 5
	}
}

func learningScore(value string) int {
	switch value {
	case "adhd", "dyslexia", "other":
		return 15
	default:
		return 5
	}
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
