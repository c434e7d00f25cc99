package repository

import (
	"context"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
)

const (
	stockCheckConstraint = "books_stock_check"
	overdueDedupIndex    = "fines_overdue_dedup"
)

// classify maps driver errors onto the domain taxonomy. Domain errors and
// context errors pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *errs.Error
	if errors.As(err, &domainErr) || errors.Is(err, errs.ErrTransient) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsTransactionRollback(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow:
			return errs.Transient(err)
		case pgErr.Code == pgerrcode.CheckViolation && pgErr.ConstraintName == stockCheckConstraint:
			return errs.ErrOutOfStock
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == overdueDedupIndex:
			return errs.ErrDuplicateAssessment
		case pgErr.Code == pgerrcode.CheckViolation:
			return errs.ErrConstraint
		}
		return errors.Wrapf(err, "postgres %s", pgErr.Code)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return errs.Transient(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Transient(err)
	}
	return err
}
