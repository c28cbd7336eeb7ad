package indexscholarship

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"

	"scholarship-workers/internal/common/logger"
)

const (
	TaskType = "index-scholarship"

	catalogCacheKey = "catalog:active-scholarships"
)

var (
	ErrScholarshipNotFound = errors.New("SCHOLARSHIP_NOT_FOUND")
	ErrIndexingFailed      = errors.New("INDEXING_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		es:     es,
		redis:  rdb,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "INDEXING_FAILED"
		if errors.Is(err, ErrScholarshipNotFound) {
			errorCode = "SCHOLARSHIP_NOT_FOUND"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if input.ScholarshipID == "" {
		return nil, fmt.Errorf("%w: scholarshipId is required", ErrScholarshipNotFound)
	}

	doc, err := h.loadScholarship(ctx, input.ScholarshipID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal document: %v", ErrIndexingFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: input.ScholarshipID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrIndexingFailed, res.String())
	}

	h.invalidateCatalogCache(ctx)

	return &Output{
		ScholarshipID: input.ScholarshipID,
		Indexed:       true,
		IndexedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) loadScholarship(ctx context.Context, scholarshipID string) (map[string]interface{}, error) {
	query := `
		SELECT id, title, organization, COALESCE(description, ''), scholarship_type,
		       matching_criteria, target_demographics, is_active, updated_at
		FROM scholarships
		WHERE id = $1`

	var (
		id, title, organization, description, schType string
		criteriaRaw, demographicsRaw                  []byte
		isActive                                      bool
		updatedAt                                     time.Time
	)

	err := h.db.QueryRowContext(ctx, query, scholarshipID).Scan(
		&id, &title, &organization, &description, &schType,
		&criteriaRaw, &demographicsRaw, &isActive, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrScholarshipNotFound, scholarshipID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load scholarship: %v", ErrIndexingFailed, err)
	}

	var criteria map[string]interface{}
	if err := json.Unmarshal(criteriaRaw, &criteria); err != nil {
		criteria = map[string]interface{}{}
	}
	var demographics map[string]interface{}
	if err := json.Unmarshal(demographicsRaw, &demographics); err != nil {
		demographics = map[string]interface{}{}
	}

	return map[string]interface{}{
		"id":                  id,
		"title":               title,
		"organization":        organization,
		"description":         description,
		"scholarship_type":    schType,
		"matching_criteria":   criteria,
		"target_demographics": demographics,
		"is_active":           isActive,
		"updated_at":          updatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// invalidateCatalogCache drops the cached active catalog so matching picks up
// the change on the next run. Cache misses are served from Postgres anyway.
func (h *Handler) invalidateCatalogCache(ctx context.Context) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, catalogCacheKey).Err(); err != nil {
		h.logger.Warn("failed to invalidate catalog cache", map[string]interface{}{
			"error": err,
		})
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
