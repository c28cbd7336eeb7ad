// internal/workers/matching/generate-matches/store.go
package generatematches

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// CatalogStore supplies the active scholarship catalog.
type CatalogStore interface {
	FetchActiveScholarships(ctx context.Context) ([]models.Scholarship, error)
}

// MatchStore persists staged matches in one batch upsert.
type MatchStore interface {
	UpsertMatches(ctx context.Context, rows []models.ScholarshipMatch) error
}

const catalogCacheKey = "catalog:active-scholarships"

// Store is the Postgres-backed implementation of both interfaces, with a
// best-effort Redis cache in front of the catalog read. A cache failure
// falls through to Postgres and is never surfaced.
type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func (s *Store) FetchActiveScholarships(ctx context.Context) ([]models.Scholarship, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, catalogCacheKey).Result(); err == nil {
			var cached []models.Scholarship
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, organization, COALESCE(description, ''),
			scholarship_type, matching_criteria, target_demographics
		FROM scholarships
		WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("fetch active scholarships: %w", err)
	}
	defer rows.Close()

	scholarships := []models.Scholarship{}
	for rows.Next() {
		var sch models.Scholarship
		var criteriaJSON, demographicsJSON []byte
		if err := rows.Scan(&sch.ID, &sch.Title, &sch.Organization, &sch.Description,
			&sch.ScholarshipType, &criteriaJSON, &demographicsJSON); err != nil {
			return nil, fmt.Errorf("scan scholarship row: %w", err)
		}

		// Malformed criteria are tolerated: the scorer treats an empty map
		// as zero points and zero reasons.
		if err := json.Unmarshal(criteriaJSON, &sch.MatchingCriteria); err != nil {
			s.logger.Warn("malformed matching_criteria, ignoring", map[string]interface{}{
				"scholarshipId": sch.ID,
				"error":         err,
			})
			sch.MatchingCriteria = models.MatchingCriteria{}
		}
		if err := json.Unmarshal(demographicsJSON, &sch.TargetDemographics); err != nil {
			s.logger.Warn("malformed target_demographics, ignoring", map[string]interface{}{
				"scholarshipId": sch.ID,
				"error":         err,
			})
			sch.TargetDemographics = models.TargetDemographics{}
		}

		sch.IsActive = true
		scholarships = append(scholarships, sch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scholarship rows: %w", err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(scholarships); err == nil {
			if err := s.redis.Set(ctx, catalogCacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("catalog cache write failed", map[string]interface{}{
					"error": err,
				})
			}
		}
	}

	return scholarships, nil
}

// UpsertMatches writes all staged rows in one statement. Existing rows for
// the same (user_id, scholarship_id) pair are overwritten, never duplicated.
// Callers must not invoke this with an empty batch.
func (s *Store) UpsertMatches(ctx context.Context, matches []models.ScholarshipMatch) error {
	if len(matches) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)

	timestampArg := len(matches)*4 + 1
	valueClauses := make([]string, 0, len(matches))
	args := make([]interface{}, 0, len(matches)*4+1)
	for i, m := range matches {
		reasonsJSON, err := json.Marshal(m.MatchReasons)
		if err != nil {
			return fmt.Errorf("marshal match reasons: %w", err)
		}
		base := i * 4
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, timestampArg, timestampArg))
		args = append(args, m.UserID, m.ScholarshipID, m.MatchScore, reasonsJSON)
	}
	args = append(args, now)

	query := fmt.Sprintf(`
		INSERT INTO scholarship_matches (
			user_id, scholarship_id, match_score, match_reasons, created_at, updated_at
		) VALUES %s
		ON CONFLICT (user_id, scholarship_id) DO UPDATE SET
			match_score = EXCLUDED.match_score,
			match_reasons = EXCLUDED.match_reasons,
			updated_at = EXCLUDED.updated_at`,
		strings.Join(valueClauses, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert matches: %w", err)
	}

	return nil
}

// InvalidateCatalogCache drops the cached catalog after an admin edit.
func (s *Store) InvalidateCatalogCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.logger.Warn("catalog cache invalidation failed", map[string]interface{}{
			"error": err,
		})
	}
}
