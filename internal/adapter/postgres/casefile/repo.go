// Package casefile implements the case repository using PostgreSQL.
package casefile

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

const table = "cases"

var columns = []string{"id", "title", "created_at"}

type row struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Case {
	return domain.Case{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt.UTC()}
}

// Repo provides case persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new case repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a case. A duplicate ID yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c domain.Case) (domain.Case, error) {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(c.ID, c.Title, c.CreatedAt).
		Suffix("RETURNING id, title, created_at").
		ToSql()
	if err != nil {
		return domain.Case{}, fmt.Errorf("build insert case: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.Case{}, postgres.MapError(err, "case", c.ID)
	}
	return out.toDomain(), nil
}

// GetByID returns a case or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Case, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Case{}, fmt.Errorf("build select case: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.Case{}, postgres.MapError(err, "case", id)
	}
	return out.toDomain(), nil
}
