// internal/workers/matching/get-matches/handler.go
package getmatches

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
)

const (
	TaskType = "get-matches"
)

const defaultLimit = 50

var (
	ErrMatchQueryFailed = errors.New("MATCH_QUERY_FAILED")
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
		h.failJob(client, job, "MATCH_QUERY_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrMatchQueryFailed)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT m.scholarship_id, s.title, s.organization, s.scholarship_type,
			m.match_score, m.match_reasons, m.updated_at
		FROM scholarship_matches m
		JOIN scholarships s ON s.id = m.scholarship_id
		WHERE m.user_id = $1
		ORDER BY m.match_score DESC
		LIMIT $2`, input.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrMatchQueryFailed, err)
	}
	defer rows.Close()

	matches := []RankedMatch{}
	for rows.Next() {
		var m RankedMatch
		var reasonsJSON []byte
		if err := rows.Scan(&m.ScholarshipID, &m.Title, &m.Organization,
			&m.ScholarshipType, &m.MatchScore, &reasonsJSON, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", ErrMatchQueryFailed, err)
		}
		if err := json.Unmarshal(reasonsJSON, &m.MatchReasons); err != nil {
			m.MatchReasons = []string{}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iteration failed: %v", ErrMatchQueryFailed, err)
	}

	h.logger.Info("matches fetched", map[string]interface{}{
		"userId": input.UserID,
		"count":  len(matches),
	})

	return &Output{
		Matches: matches,
		Count:   len(matches),
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
