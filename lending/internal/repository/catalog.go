package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
)

// catalog owns books.stock. It is only mutated through reserveCopy and
// releaseCopy, which run inside ledger transactions.
type catalog struct {
	db dbtx
}

func (c catalog) availability(ctx context.Context, bookID int64) (int, error) {
	q, args, err := qb.Select("stock").
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var stock int
	if err := c.db.QueryRow(ctx, q, args...).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrBookNotFound
		}
		return 0, err
	}
	return stock, nil
}

// reserveCopy takes one copy off the shelf. The conditional update holds the
// book row lock, so concurrent reservations of the last copy serialize and
// only one of them matches stock > 0.
func (c catalog) reserveCopy(ctx context.Context, bookID int64) (int, error) {
	q, args, err := qb.Update(booksTableName).
		Set("stock", sq.Expr("stock - 1")).
		Where(sq.Eq{"id": bookID}).
		Where(sq.Gt{"stock": 0}).
		Suffix("returning stock").
		ToSql()
	if err != nil {
		return 0, err
	}
	var stock int
	err = c.db.QueryRow(ctx, q, args...).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := c.availability(ctx, bookID); err != nil {
			return 0, err
		}
		return 0, errs.ErrOutOfStock
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// releaseCopy puts a copy back. Not idempotent: callers invoke it exactly
// once per closed loan.
func (c catalog) releaseCopy(ctx context.Context, bookID int64) (int, error) {
	q, args, err := qb.Update(booksTableName).
		Set("stock", sq.Expr("stock + 1")).
		Where(sq.Eq{"id": bookID}).
		Suffix("returning stock").
		ToSql()
	if err != nil {
		return 0, err
	}
	var stock int
	if err := c.db.QueryRow(ctx, q, args...).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrBookNotFound
		}
		return 0, err
	}
	return stock, nil
}

// GetAvailability reads straight from the table; it never consults a cache.
func (r *repository) GetAvailability(ctx context.Context, bookID int64) (int, error) {
	stock, err := catalog{db: r.db}.availability(ctx, bookID)
	return stock, classify(err)
}
