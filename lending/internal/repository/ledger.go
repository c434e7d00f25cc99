package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
)

var loanColumns = []string{"id", "user_id", "book_id", "borrow_date", "due_date", "return_date", "status"}

func returningLoan() string {
	return "returning " + strings.Join(loanColumns, ", ")
}

func userExists(ctx context.Context, db dbtx, userID int64) error {
	q, args, err := qb.Select("1").
		From(usersTableName).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	var one int
	if err := db.QueryRow(ctx, q, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrUserNotFound
		}
		return err
	}
	return nil
}

func getLoan(ctx context.Context, db dbtx, loanID int64, forUpdate bool) (model.Loan, error) {
	b := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": loanID})
	if forUpdate {
		b = b.Suffix("for update")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return model.Loan{}, err
	}
	loan, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

// OpenLoan reserves a copy and records the loan in one transaction; either
// both happen or neither does.
func (r *repository) OpenLoan(ctx context.Context, userID, bookID int64, borrowDate, dueDate model.Date) (model.Loan, error) {
	if dueDate.Before(borrowDate.Time) {
		return model.Loan{}, errs.Validation("due date %s is before borrow date %s", dueDate, borrowDate)
	}

	var loan model.Loan
	err := r.inTx(ctx, "OpenLoan", func(tx pgx.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := (catalog{db: tx}).reserveCopy(ctx, bookID); err != nil {
			return err
		}

		q, args, err := qb.Insert(loansTableName).
			Columns("user_id", "book_id", "borrow_date", "due_date", "status").
			Values(userID, bookID, borrowDate, dueDate, model.LoanActive).
			Suffix(returningLoan()).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		loan, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
		return err
	})
	if err != nil {
		return model.Loan{}, err
	}
	r.log.Debug("loan opened", zap.Int64("loan", loan.ID), zap.Int64("user", userID), zap.Int64("book", bookID))
	return loan, nil
}

// CloseLoan marks an active loan returned, puts the copy back and assesses
// the overdue fine, all in one transaction.
func (r *repository) CloseLoan(ctx context.Context, loanID int64, returnDate model.Date) (model.Loan, *model.Fine, error) {
	var (
		loan     model.Loan
		assessed *model.Fine
	)
	err := r.inTx(ctx, "CloseLoan", func(tx pgx.Tx) error {
		current, err := getLoan(ctx, tx, loanID, true)
		if err != nil {
			return err
		}
		if current.Status != model.LoanActive {
			return errs.ErrAlreadyReturned
		}
		if returnDate.Before(current.BorrowDate.Time) {
			return errs.Validation("return date %s is before borrow date %s", returnDate, current.BorrowDate)
		}

		q, args, err := qb.Update(loansTableName).
			Set("status", model.LoanReturned).
			Set("return_date", returnDate).
			Where(sq.Eq{"id": loanID, "status": model.LoanActive}).
			Suffix(returningLoan()).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		loan, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrAlreadyReturned
			}
			return err
		}

		if _, err := (catalog{db: tx}).releaseCopy(ctx, loan.BookID); err != nil {
			return err
		}

		assessed, err = r.assess(ctx, tx, loan, returnDate)
		return err
	})
	if err != nil {
		return model.Loan{}, nil, err
	}
	r.log.Debug("loan closed", zap.Int64("loan", loan.ID), zap.Bool("fined", assessed != nil))
	return loan, assessed, nil
}

func (r *repository) GetLoan(ctx context.Context, loanID int64) (model.Loan, error) {
	loan, err := getLoan(ctx, r.db, loanID, false)
	return loan, classify(err)
}

func loanSummaryQuery() sq.SelectBuilder {
	cols := make([]string, 0, len(loanColumns)+3)
	for _, c := range loanColumns {
		cols = append(cols, "l."+c)
	}
	cols = append(cols, "u.name as user_name", "b.title as book_title", "b.author as book_author")
	return qb.Select(cols...).
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		Join(fmt.Sprintf("%s b on b.id = l.book_id", booksTableName))
}

func (r *repository) ListLoansByUser(ctx context.Context, userID int64) ([]model.LoanSummary, error) {
	q, args, err := loanSummaryQuery().
		Where(sq.Eq{"l.user_id": userID}).
		OrderBy("l.borrow_date desc", "l.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.collectLoans(ctx, q, args)
}

func (r *repository) ListLoans(ctx context.Context) ([]model.LoanSummary, error) {
	q, args, err := loanSummaryQuery().
		OrderBy("l.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.collectLoans(ctx, q, args)
}

func (r *repository) collectLoans(ctx context.Context, q string, args []any) ([]model.LoanSummary, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		r.log.Error("collectLoans", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return nil, classify(err)
	}
	loans, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.LoanSummary])
	if err != nil {
		return nil, classify(errors.Wrap(err, "pgx.CollectRows"))
	}
	return loans, nil
}
