package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type beginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Issues() IssueRepository
	Escalations() EscalationRepository
	Resolutions() ResolutionRepository
	Suggestions() SuggestionRepository
	Categories() CategoryRepository
	Users() UserRepository
	Reports() ReportRepository
	// WithinTx runs fn against a transaction-scoped Store. The transaction commits
	// when fn returns nil and rolls back on error or panic.
	WithinTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

type pgStore struct {
	db beginner
}

// NewPostgresStore returns a Store backed by the pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool}
}

func (s *pgStore) Issues() IssueRepository           { return NewIssueRepository(s.db) }
func (s *pgStore) Escalations() EscalationRepository { return NewEscalationRepository(s.db) }
func (s *pgStore) Resolutions() ResolutionRepository { return NewResolutionRepository(s.db) }
func (s *pgStore) Suggestions() SuggestionRepository { return NewSuggestionRepository(s.db) }
func (s *pgStore) Categories() CategoryRepository    { return NewCategoryRepository(s.db) }
func (s *pgStore) Users() UserRepository             { return NewUserRepository(s.db) }
func (s *pgStore) Reports() ReportRepository         { return NewReportRepository(s.db) }

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&pgStore{db: tx})
	})
}

func (s *pgStore) Ping(ctx context.Context) error {
	if pool, ok := s.db.(*pgxpool.Pool); ok {
		if pool == nil {
			return errors.New("postgres pool not configured")
		}
		return pool.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
