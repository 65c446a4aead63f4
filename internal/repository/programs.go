// internal/repository/programs.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stderrors "govmatch/internal/common/errors"
	"govmatch/internal/common/logger"
	"govmatch/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

var (
	ErrQueryFailed = errors.New(string(stderrors.ErrCodeQueryExecutionFailed))
)

const activeProgramsCacheKey = "programs:active"

// ProgramQuery holds the structured predicates the repository can push down.
// The hard filter applies the full eligibility semantics in memory; this
// query only narrows the scan.
type ProgramQuery struct {
	Categories     []string
	RegionContains string
	ActiveOnly     bool
	DeadlineBefore *time.Time
}

// ProgramRepository is the read-mostly candidate repository collaborator.
type ProgramRepository interface {
	FindCandidates(ctx context.Context, q ProgramQuery) ([]models.Program, error)
	ListActive(ctx context.Context) ([]models.Program, error)
	CountAll(ctx context.Context) (int, error)
}

// Repository is the postgres-backed implementation with a redis read-through
// cache for the full active-program scan used by the relevance stage.
type Repository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func New(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Repository {
	return &Repository{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "program-repository"}),
	}
}

const programColumns = `id, title, description, category, target_eligibility, region,
	deadline, amount_min, amount_max, support_rate, provider_name, provider_type,
	tags, created_at, updated_at`

// FindCandidates returns programs matching the pushed-down predicates.
func (r *Repository) FindCandidates(ctx context.Context, q ProgramQuery) ([]models.Program, error) {
	var (
		conds []string
		args  []interface{}
	)

	if len(q.Categories) > 0 {
		args = append(args, pq.Array(q.Categories))
		conds = append(conds, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if q.RegionContains != "" {
		args = append(args, "%"+q.RegionContains+"%")
		conds = append(conds, fmt.Sprintf("(region IS NULL OR region ILIKE $%d)", len(args)))
	}
	if q.ActiveOnly {
		conds = append(conds, "(deadline IS NULL OR deadline >= NOW())")
	}
	if q.DeadlineBefore != nil {
		args = append(args, *q.DeadlineBefore)
		conds = append(conds, fmt.Sprintf("(deadline IS NULL OR deadline <= $%d)", len(args)))
	}

	query := "SELECT " + programColumns + " FROM support_programs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY deadline ASC NULLS LAST"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	return scanPrograms(rows)
}

// ListActive returns every open program, serving the full-table-scan fallback
// needed by the relevance stage. The result is cached in redis because the
// corpus is read-mostly and shared across requests; per-request state is
// never cached.
func (r *Repository) ListActive(ctx context.Context) ([]models.Program, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, activeProgramsCacheKey).Result(); err == nil {
			var programs []models.Program
			if err := json.Unmarshal([]byte(val), &programs); err == nil {
				return programs, nil
			}
		}
	}

	programs, err := r.FindCandidates(ctx, ProgramQuery{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(programs); err == nil {
			if err := r.redis.Set(ctx, activeProgramsCacheKey, data, r.cacheTTL).Err(); err != nil {
				r.logger.Warn("failed to cache active programs", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	return programs, nil
}

// CountAll returns the total number of program records.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM support_programs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return count, nil
}

func scanPrograms(rows *sql.Rows) ([]models.Program, error) {
	var programs []models.Program

	for rows.Next() {
		var (
			p           models.Program
			eligibility sql.NullString
			region      sql.NullString
			deadline    sql.NullTime
			amountMin   sql.NullInt64
			amountMax   sql.NullInt64
			tagsRaw     []byte
		)

		err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Category,
			&eligibility, &region, &deadline,
			&amountMin, &amountMax, &p.SupportRate,
			&p.ProviderName, &p.ProviderType,
			&tagsRaw, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}

		if eligibility.Valid {
			p.TargetEligibility = &eligibility.String
		}
		if region.Valid {
			p.Region = &region.String
		}
		if deadline.Valid {
			d := deadline.Time
			p.Deadline = &d
		}
		if amountMin.Valid {
			p.AmountMin = &amountMin.Int64
		}
		if amountMax.Valid {
			p.AmountMax = &amountMax.Int64
		}
		if len(tagsRaw) > 0 {
			if err := json.Unmarshal(tagsRaw, &p.Tags); err != nil {
				p.Tags = nil
			}
		}

		programs = append(programs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	return programs, nil
}
