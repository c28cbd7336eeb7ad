// internal/workers/matching/generate-matches/store_test.go
package generatematches

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"scholarship-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func scholarshipRows() *sqlmock.Rows {
	criteria, _ := json.Marshal(map[string]map[string]int{
		"income_level": {"low": 10},
	})
	demographics, _ := json.Marshal(map[string][]string{
		"income_levels": {"low"},
	})

	return sqlmock.NewRows([]string{
		"id", "title", "organization", "description",
		"scholarship_type", "matching_criteria", "target_demographics",
	}).AddRow("sch-1", "Award One", "Foundation", "desc", "need-based", criteria, demographics)
}

func TestStore_FetchActiveScholarships_FromPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, title, organization").
		WillReturnRows(scholarshipRows())

	store := NewStore(db, nil, time.Minute, newTestLogger(t))
	scholarships, err := store.FetchActiveScholarships(context.Background())

	assert.NoError(t, err)
	assert.Len(t, scholarships, 1)
	assert.Equal(t, "sch-1", scholarships[0].ID)
	assert.Equal(t, "need-based", scholarships[0].ScholarshipType)
	assert.True(t, scholarships[0].IsActive)
	assert.Equal(t, 10, scholarships[0].MatchingCriteria["income_level"]["low"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FetchActiveScholarships_CacheHitSkipsPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, client := newTestRedis(t)

	cached, _ := json.Marshal([]models.Scholarship{
		{ID: "sch-cached", Title: "Cached Award", ScholarshipType: "stem", IsActive: true},
	})
	mr.Set("catalog:active-scholarships", string(cached))

	store := NewStore(db, client, time.Minute, newTestLogger(t))
	scholarships, err := store.FetchActiveScholarships(context.Background())

	assert.NoError(t, err)
	assert.Len(t, scholarships, 1)
	assert.Equal(t, "sch-cached", scholarships[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL query expected on cache hit")
}

func TestStore_FetchActiveScholarships_CacheMissPopulatesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, client := newTestRedis(t)

	mock.ExpectQuery("SELECT id, title, organization").
		WillReturnRows(scholarshipRows())

	store := NewStore(db, client, time.Minute, newTestLogger(t))
	scholarships, err := store.FetchActiveScholarships(context.Background())

	assert.NoError(t, err)
	assert.Len(t, scholarships, 1)
	assert.True(t, mr.Exists("catalog:active-scholarships"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FetchActiveScholarships_CorruptCacheFallsThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, client := newTestRedis(t)
	mr.Set("catalog:active-scholarships", "{not json")

	mock.ExpectQuery("SELECT id, title, organization").
		WillReturnRows(scholarshipRows())

	store := NewStore(db, client, time.Minute, newTestLogger(t))
	scholarships, err := store.FetchActiveScholarships(context.Background())

	assert.NoError(t, err)
	assert.Len(t, scholarships, 1)
	assert.Equal(t, "sch-1", scholarships[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FetchActiveScholarships_MalformedCriteriaTolerated(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "title", "organization", "description",
		"scholarship_type", "matching_criteria", "target_demographics",
	}).AddRow("sch-bad", "Broken Award", "Foundation", "", "stem", []byte("{oops"), []byte("[]"))

	mock.ExpectQuery("SELECT id, title, organization").WillReturnRows(rows)

	store := NewStore(db, nil, time.Minute, newTestLogger(t))
	scholarships, err := store.FetchActiveScholarships(context.Background())

	assert.NoError(t, err)
	assert.Len(t, scholarships, 1)
	assert.Empty(t, scholarships[0].MatchingCriteria)
	assert.Empty(t, scholarships[0].TargetDemographics)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertMatches_SingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO scholarship_matches").
		WillReturnResult(sqlmock.NewResult(0, 2))

	store := NewStore(db, nil, time.Minute, newTestLogger(t))
	err = store.UpsertMatches(context.Background(), []models.ScholarshipMatch{
		{UserID: "user-1", ScholarshipID: "sch-1", MatchScore: 40, MatchReasons: []string{"Income level match"}},
		{UserID: "user-1", ScholarshipID: "sch-2", MatchScore: 55, MatchReasons: []string{}},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertMatches_EmptyBatchIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db, nil, time.Minute, newTestLogger(t))
	err = store.UpsertMatches(context.Background(), nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InvalidateCatalogCache(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Set("catalog:active-scholarships", "[]")

	store := NewStore(nil, client, time.Minute, newTestLogger(t))
	store.InvalidateCatalogCache(context.Background())

	assert.False(t, mr.Exists("catalog:active-scholarships"))
}
