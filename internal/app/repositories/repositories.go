package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unisphere/gradebook/internal/db"
	"github.com/unisphere/gradebook/internal/pkg/dberrors"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builds Postgres statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories is the Postgres implementation of Store
type Repositories struct {
	pool *pgxpool.Pool
	inTx bool

	AssessmentRepository      *PgAssessmentRepository
	ResultRepository          *PgAssessmentResultRepository
	GradingRuleRepository     *PgGradingRuleRepository
	FinalizedResultRepository *PgFinalizedResultRepository
	AcademicRepository        *PgAcademicRepository
}

// NewRepositories initializes all repositories on top of the pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return newRepositories(pool, pool, false)
}

func newRepositories(pool *pgxpool.Pool, q DBTX, inTx bool) *Repositories {
	return &Repositories{
		pool:                      pool,
		inTx:                      inTx,
		AssessmentRepository:      NewPgAssessmentRepository(q),
		ResultRepository:          NewPgAssessmentResultRepository(q),
		GradingRuleRepository:     NewPgGradingRuleRepository(q),
		FinalizedResultRepository: NewPgFinalizedResultRepository(q),
		AcademicRepository:        NewPgAcademicRepository(q),
	}
}

var (
	_ Store                      = (*Repositories)(nil)
	_ AssessmentRepository       = (*PgAssessmentRepository)(nil)
	_ AssessmentResultRepository = (*PgAssessmentResultRepository)(nil)
	_ GradingRuleRepository      = (*PgGradingRuleRepository)(nil)
	_ FinalizedResultRepository  = (*PgFinalizedResultRepository)(nil)
	_ AcademicRepository         = (*PgAcademicRepository)(nil)
)

func (r *Repositories) Assessments() AssessmentRepository {
	return r.AssessmentRepository
}

func (r *Repositories) Results() AssessmentResultRepository {
	return r.ResultRepository
}

func (r *Repositories) GradingRules() GradingRuleRepository {
	return r.GradingRuleRepository
}

func (r *Repositories) FinalizedResults() FinalizedResultRepository {
	return r.FinalizedResultRepository
}

func (r *Repositories) Academics() AcademicRepository {
	return r.AcademicRepository
}

// WithinTransaction implements Store
func (r *Repositories) WithinTransaction(ctx context.Context, opts TxOptions, fn func(ctx context.Context, tx Store) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	err := db.WithTransaction(ctx, r.pool, toPgxOptions(opts), func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, newRepositories(r.pool, tx, true))
	})
	if err != nil && dberrors.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrConcurrentTransaction, err)
	}
	return err
}

func toPgxOptions(opts TxOptions) pgx.TxOptions {
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	switch opts.Isolation {
	case RepeatableRead:
		txOpts.IsoLevel = pgx.RepeatableRead
	case Serializable:
		txOpts.IsoLevel = pgx.Serializable
	}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	return txOpts
}
