// internal/repository/programs_test.go
package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmatch/internal/common/logger"
	"govmatch/internal/models"
)

var programRows = []string{
	"id", "title", "description", "category", "target_eligibility", "region",
	"deadline", "amount_min", "amount_max", "support_rate", "provider_name",
	"provider_type", "tags", "created_at", "updated_at",
}

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return New(db, rdb, 5*time.Minute, logger.NewNoOpLogger()), mock, mr
}

func sampleRow(now time.Time) []driver.Value {
	return []driver.Value{
		"p-1", "Smart Factory Grant", "Supports automation", "tech",
		"SMEs under 50 employees", "seoul",
		now.AddDate(0, 0, 30), int64(10_000_000), int64(100_000_000), 0.8,
		"Ministry of SMEs", "government",
		[]byte(`["smart","factory"]`), now, now,
	}
}

func TestFindCandidates_ScansNullableColumns(t *testing.T) {
	repo, mock, _ := setupRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(programRows).
		AddRow(sampleRow(now)...).
		AddRow("p-2", "Open Fund", "Rolling support", "startup",
			nil, nil, nil, nil, nil, 0.5,
			"KOSME", "agency", nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM support_programs").WillReturnRows(rows)

	got, err := repo.FindCandidates(context.Background(), ProgramQuery{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	full := got[0]
	assert.Equal(t, "p-1", full.ID)
	require.NotNil(t, full.Region)
	assert.Equal(t, "seoul", *full.Region)
	require.NotNil(t, full.AmountMin)
	assert.Equal(t, int64(10_000_000), *full.AmountMin)
	assert.Equal(t, []string{"smart", "factory"}, full.Tags)

	sparse := got[1]
	assert.Nil(t, sparse.Region)
	assert.Nil(t, sparse.Deadline)
	assert.Nil(t, sparse.TargetEligibility)
	assert.Nil(t, sparse.AmountMin)
	assert.Nil(t, sparse.AmountMax)
	assert.Empty(t, sparse.Tags)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCandidates_PushesDownPredicates(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM support_programs WHERE category = ANY\(\$1\) AND \(deadline IS NULL OR deadline >= NOW\(\)\) ORDER BY deadline ASC NULLS LAST`).
		WillReturnRows(sqlmock.NewRows(programRows))

	_, err := repo.FindCandidates(context.Background(), ProgramQuery{
		Categories: []string{"tech", "startup"},
		ActiveOnly: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCandidates_QueryError(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM support_programs").
		WillReturnError(assert.AnError)

	_, err := repo.FindCandidates(context.Background(), ProgramQuery{})
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestListActive_PopulatesCache(t *testing.T) {
	repo, mock, mr := setupRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM support_programs").
		WillReturnRows(sqlmock.NewRows(programRows).AddRow(sampleRow(now)...))

	got, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	cached, err := mr.Get(activeProgramsCacheKey)
	require.NoError(t, err)

	var programs []models.Program
	require.NoError(t, json.Unmarshal([]byte(cached), &programs))
	assert.Equal(t, "p-1", programs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActive_ServesFromCache(t *testing.T) {
	repo, mock, mr := setupRepo(t)

	programs := []models.Program{{ID: "cached-1", Title: "Cached Program", Category: "tech"}}
	data, err := json.Marshal(programs)
	require.NoError(t, err)
	require.NoError(t, mr.Set(activeProgramsCacheKey, string(data)))

	// No database expectation: a cache hit must not touch postgres.
	got, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cached-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAll(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM support_programs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
