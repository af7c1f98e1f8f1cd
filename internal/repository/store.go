package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate se devuelve cuando una escritura choca con una restricción única.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference se devuelve cuando una FK apunta a un registro inexistente.
	ErrMissingReference = errors.New("referenced record does not exist")
)

// DBTX es el subconjunto común a *pgxpool.Pool y pgx.Tx que usan los repositorios.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx expone los repositorios que escriben dentro de una misma transacción.
type Tx interface {
	Assessments() AssessmentRepository
	Recommendations() RecommendationRepository
}

// TxRunner ejecuta fn en una transacción: commit si devuelve nil, rollback en otro caso.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// PgStore implementa TxRunner sobre pgxpool.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Assessments() AssessmentRepository {
	return NewPgAssessmentRepository(t.tx)
}

func (t pgTx) Recommendations() RecommendationRepository {
	return NewPgRecommendationRepository(t.tx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
