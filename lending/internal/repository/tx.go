package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
)

type retryConfig struct {
	maxAttempts     uint64
	initialInterval time.Duration
}

var defaultRetry = retryConfig{
	maxAttempts:     3,
	initialInterval: 100 * time.Millisecond,
}

func (c retryConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxAttempts-1), ctx)
}

// inTx runs fn in a single read-committed transaction. The whole transaction
// is retried on transient failures only; domain errors are returned at once.
func (r *repository) inTx(ctx context.Context, name string, fn func(tx pgx.Tx) error) error {
	return r.withRetry(ctx, name, func() error {
		return r.runTx(ctx, fn)
	})
}

func (r *repository) withRetry(ctx context.Context, name string, run func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := run()
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			r.log.Error("tx outcome unknown", zap.String("tx", name), zap.Int("attempt", attempt), zap.Error(permanent.Err))
			return err
		}
		if errors.Is(err, errs.ErrTransient) {
			r.log.Warn("transient tx failure", zap.String("tx", name), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, r.retry.backOff(ctx))
}

func (r *repository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Warn("rollback", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		r.logConstraint(err)
		return classify(err)
	}
	if err = tx.Commit(ctx); err != nil {
		r.logConstraint(err)
		return commitFailure(err)
	}
	return nil
}

// commitFailure classifies an error returned by Commit. Only a rollback
// reported by the server is safe to run again. Any other transient failure
// leaves the outcome unknown, so it is returned without a retry.
func commitFailure(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsTransactionRollback(pgErr.Code) {
		return errs.Transient(err)
	}
	err = classify(err)
	if errors.Is(err, errs.ErrTransient) {
		return backoff.Permanent(err)
	}
	return err
}

func (r *repository) logConstraint(err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		r.log.Info("constraint violated",
			zap.String("constraint", pgErr.ConstraintName),
			zap.String("table", pgErr.TableName),
			zap.String("code", pgErr.Code))
	}
}
