package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/model"
)

type CatalogStore interface {
	GetAvailability(ctx context.Context, bookID int64) (int, error)
}

type LoanLedger interface {
	OpenLoan(ctx context.Context, userID, bookID int64, borrowDate, dueDate model.Date) (model.Loan, error)
	CloseLoan(ctx context.Context, loanID int64, returnDate model.Date) (model.Loan, *model.Fine, error)
	GetLoan(ctx context.Context, loanID int64) (model.Loan, error)
	ListLoansByUser(ctx context.Context, userID int64) ([]model.LoanSummary, error)
	ListLoans(ctx context.Context) ([]model.LoanSummary, error)
}

type FineStore interface {
	AddFine(ctx context.Context, loanID, amount int64, reason string, assessedDate model.Date) (model.Fine, error)
	MarkPaid(ctx context.Context, fineID int64, method, note string, paidDate model.Date) (model.Fine, error)
	TotalUnpaid(ctx context.Context, userID int64) (int64, error)
	ListFinesByUser(ctx context.Context, userID int64) ([]model.FineSummary, error)
	ListFines(ctx context.Context) ([]model.FineSummary, error)
}

type Repository interface {
	CatalogStore
	LoanLedger
	FineStore
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db    *pgxpool.Pool
	calc  *fine.Calculator
	retry retryConfig
	log   *zap.Logger
}

type Option func(*repository)

// WithRetry bounds the attempts made for transactions that fail transiently.
func WithRetry(maxAttempts uint64, initialInterval time.Duration) Option {
	return func(r *repository) {
		if maxAttempts > 0 {
			r.retry.maxAttempts = maxAttempts
		}
		if initialInterval > 0 {
			r.retry.initialInterval = initialInterval
		}
	}
}

func NewRepository(db *pgxpool.Pool, calc *fine.Calculator, log *zap.Logger, opts ...Option) (*repository, error) {
	r := &repository{
		db:    db,
		calc:  calc,
		retry: defaultRetry,
		log:   log.Named("repo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var _ Repository = (*repository)(nil)

const (
	usersTableName = `users`
	booksTableName = `books`
	loansTableName = `loans`
	finesTableName = `fines`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
