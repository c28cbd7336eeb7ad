// internal/workers/matching/generate-matches/handler.go
package generatematches

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/metrics"
	"scholarship-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-matches"
)

type Handler struct {
	config       *Config
	catalog      CatalogStore
	matches      MatchStore
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, catalog CatalogStore, matches MatchStore, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		catalog:      catalog,
		matches:      matches,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewMatchInputInvalidError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	scholarships, err := h.catalog.FetchActiveScholarships(ctx)
	if err != nil {
		return nil, errors.NewCatalogFetchFailedError(err)
	}

	// An empty catalog is a valid zero-match outcome, not an error.
	if len(scholarships) == 0 {
		h.logger.Info("no active scholarships", map[string]interface{}{
			"userId": input.UserID,
		})
		metrics.MatchesGenerated.WithLabelValues("empty_catalog").Add(0)
		return &Output{
			MatchCount:  0,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	staged := make([]models.ScholarshipMatch, 0, len(scholarships))
	for _, scholarship := range scholarships {
		score := Score(scholarship, *input.InclusivityIndex, *input.SurveyData)
		metrics.MatchScoreDistribution.Observe(float64(score))

		if score <= h.config.ScoreThreshold {
			continue
		}

		staged = append(staged, models.ScholarshipMatch{
			UserID:        input.UserID,
			ScholarshipID: scholarship.ID,
			MatchScore:    score,
			MatchReasons:  Reasons(scholarship, *input.SurveyData),
		})
	}

	if len(staged) > 0 {
		if err := h.matches.UpsertMatches(ctx, staged); err != nil {
			return nil, errors.NewMatchPersistFailedError(err)
		}
	}

	metrics.MatchesGenerated.WithLabelValues("staged").Add(float64(len(staged)))

	h.logger.Info("matches generated", map[string]interface{}{
		"userId":     input.UserID,
		"evaluated":  len(scholarships),
		"matchCount": len(staged),
	})

	return &Output{
		MatchCount:  len(staged),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// validateInput rejects the payload before any scoring runs. The index field
// must be present; a present zero is a legitimate value.
func validateInput(input *Input) error {
	missing := []string{}
	if input.UserID == "" {
		missing = append(missing, "userId")
	}
	if input.InclusivityIndex == nil {
		missing = append(missing, "inclusivityIndex")
	}
	if input.SurveyData == nil {
		missing = append(missing, "surveyData")
	}
	if len(missing) > 0 {
		return errors.NewMatchInputInvalidError(
			"missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
