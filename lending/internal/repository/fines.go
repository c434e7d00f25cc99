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

var fineColumns = []string{
	"id", "loan_id", "amount", "reason", "status",
	"payment_method", "payment_note", "paid_date", "assessed_date",
}

func returningFine() string {
	return "returning " + strings.Join(fineColumns, ", ")
}

func insertFine(ctx context.Context, db dbtx, f model.Fine) (model.Fine, error) {
	q, args, err := qb.Insert(finesTableName).
		Columns("loan_id", "amount", "reason", "status", "assessed_date").
		Values(f.LoanID, f.Amount, f.Reason, model.FineUnpaid, f.AssessedDate).
		Suffix(returningFine()).
		ToSql()
	if err != nil {
		return model.Fine{}, err
	}
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return model.Fine{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Fine])
}

// assess charges the overdue fine for loan as of asOf, if any. It must run in
// the transaction that closes the loan; the dedup index rejects a second
// overdue fine for the same loan and day.
func (r *repository) assess(ctx context.Context, tx pgx.Tx, loan model.Loan, asOf model.Date) (*model.Fine, error) {
	f, late := r.calc.Assess(loan, asOf)
	if !late {
		return nil, nil
	}
	saved, err := insertFine(ctx, tx, f)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repository) AddFine(ctx context.Context, loanID, amount int64, reason string, assessedDate model.Date) (model.Fine, error) {
	if amount <= 0 {
		return model.Fine{}, errs.Validation("amount must be positive")
	}
	if strings.TrimSpace(reason) == "" {
		return model.Fine{}, errs.Validation("reason is required")
	}

	var saved model.Fine
	err := r.inTx(ctx, "AddFine", func(tx pgx.Tx) error {
		if _, err := getLoan(ctx, tx, loanID, false); err != nil {
			return err
		}
		var err error
		saved, err = insertFine(ctx, tx, model.Fine{
			LoanID:       loanID,
			Amount:       amount,
			Reason:       reason,
			AssessedDate: assessedDate,
		})
		return err
	})
	if err != nil {
		return model.Fine{}, err
	}
	return saved, nil
}

// MarkPaid moves a fine from UNPAID to PAID. The transition is one-way.
func (r *repository) MarkPaid(ctx context.Context, fineID int64, method, note string, paidDate model.Date) (model.Fine, error) {
	if strings.TrimSpace(method) == "" {
		return model.Fine{}, errs.Validation("payment method is required")
	}

	var notePtr *string
	if note != "" {
		notePtr = &note
	}

	var paid model.Fine
	err := r.inTx(ctx, "MarkPaid", func(tx pgx.Tx) error {
		q, args, err := qb.Update(finesTableName).
			Set("status", model.FinePaid).
			Set("payment_method", method).
			Set("payment_note", notePtr).
			Set("paid_date", paidDate).
			Where(sq.Eq{"id": fineID, "status": model.FineUnpaid}).
			Suffix(returningFine()).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		paid, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Fine])
		if errors.Is(err, pgx.ErrNoRows) {
			return fineMissingOrPaid(ctx, tx, fineID)
		}
		return err
	})
	if err != nil {
		return model.Fine{}, err
	}
	r.log.Debug("fine paid", zap.Int64("fine", paid.ID), zap.String("method", method))
	return paid, nil
}

func fineMissingOrPaid(ctx context.Context, db dbtx, fineID int64) error {
	q, args, err := qb.Select("status").
		From(finesTableName).
		Where(sq.Eq{"id": fineID}).
		ToSql()
	if err != nil {
		return err
	}
	var status model.FineStatus
	if err := db.QueryRow(ctx, q, args...).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrFineNotFound
		}
		return err
	}
	return errs.ErrAlreadyPaid
}

func (r *repository) TotalUnpaid(ctx context.Context, userID int64) (int64, error) {
	q, args, err := qb.Select("coalesce(sum(f.amount), 0)::bigint").
		From(finesTableName + " f").
		Join(fmt.Sprintf("%s l on l.id = f.loan_id", loansTableName)).
		Where(sq.Eq{"l.user_id": userID, "f.status": model.FineUnpaid}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&total); err != nil {
		return 0, classify(err)
	}
	return total, nil
}

func fineSummaryQuery() sq.SelectBuilder {
	cols := make([]string, 0, len(fineColumns)+3)
	for _, c := range fineColumns {
		cols = append(cols, "f."+c)
	}
	cols = append(cols, "l.user_id", "u.name as user_name", "b.title as book_title")
	return qb.Select(cols...).
		From(finesTableName + " f").
		Join(fmt.Sprintf("%s l on l.id = f.loan_id", loansTableName)).
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		Join(fmt.Sprintf("%s b on b.id = l.book_id", booksTableName))
}

func (r *repository) ListFinesByUser(ctx context.Context, userID int64) ([]model.FineSummary, error) {
	q, args, err := fineSummaryQuery().
		Where(sq.Eq{"l.user_id": userID}).
		OrderBy("f.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.collectFines(ctx, q, args)
}

func (r *repository) ListFines(ctx context.Context) ([]model.FineSummary, error) {
	q, args, err := fineSummaryQuery().
		OrderBy("f.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.collectFines(ctx, q, args)
}

func (r *repository) collectFines(ctx context.Context, q string, args []any) ([]model.FineSummary, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		r.log.Error("collectFines", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return nil, classify(err)
	}
	fines, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.FineSummary])
	if err != nil {
		return nil, classify(errors.Wrap(err, "pgx.CollectRows"))
	}
	return fines, nil
}
