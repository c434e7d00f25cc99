package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/migrations"
	"github.com/Astemirdum/lending-service/pkg/postgres"
)

// Runs against a real database only when LENDING_TEST_POSTGRES_DSN is set.
func setupRepo(t *testing.T) (*repository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("LENDING_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LENDING_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.NewPostgresDBFromDSN(ctx, dsn, 20, migrations.MigrationFiles)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	calc, err := fine.NewCalculator(500, "IDR")
	require.NoError(t, err)
	repo, err := NewRepository(db, calc, zap.NewExample().Named("test"), WithRetry(3, 10*time.Millisecond))
	require.NoError(t, err)
	return repo, db
}

func seedUser(t *testing.T, db *pgxpool.Pool) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`insert into users (name, email) values ($1, $2) returning id`,
		"member", uuid.NewString()+"@example.org").Scan(&id)
	require.NoError(t, err)
	return id
}

func seedBook(t *testing.T, db *pgxpool.Pool, stock int) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`insert into books (title, author, isbn, stock) values ($1, $2, $3, $4) returning id`,
		"Laskar Pelangi", "Andrea Hirata", uuid.NewString(), stock).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRepository_OpenLoanLastCopy(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	book := seedBook(t, db, 1)

	const borrowers = 8
	users := make([]int64, borrowers)
	for i := range users {
		users[i] = seedUser(t, db)
	}

	today := model.MustDate("2024-03-01")
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		outOfStk int
	)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := repo.OpenLoan(ctx, userID, book, today, today.AddDays(7))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, errs.ErrOutOfStock):
				outOfStk++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(users[i])
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, borrowers-1, outOfStk)
	stock, err := repo.GetAvailability(ctx, book)
	require.NoError(t, err)
	require.Equal(t, 0, stock)
}

func TestRepository_CloseLoanAssessesOnce(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	user := seedUser(t, db)
	book := seedBook(t, db, 2)

	borrowed := model.MustDate("2024-03-01")
	loan, err := repo.OpenLoan(ctx, user, book, borrowed, borrowed.AddDays(7))
	require.NoError(t, err)
	require.Equal(t, model.LoanActive, loan.Status)

	returned, assessed, err := repo.CloseLoan(ctx, loan.ID, borrowed.AddDays(12))
	require.NoError(t, err)
	require.Equal(t, model.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	require.NotNil(t, assessed)
	require.Equal(t, int64(2500), assessed.Amount)
	require.Equal(t, model.OverdueReason, assessed.Reason)

	_, _, err = repo.CloseLoan(ctx, loan.ID, borrowed.AddDays(13))
	require.ErrorIs(t, err, errs.ErrAlreadyReturned)

	stock, err := repo.GetAvailability(ctx, book)
	require.NoError(t, err)
	require.Equal(t, 2, stock)

	total, err := repo.TotalUnpaid(ctx, user)
	require.NoError(t, err)
	require.Equal(t, int64(2500), total)

	paid, err := repo.MarkPaid(ctx, assessed.ID, "cash", "", borrowed.AddDays(14))
	require.NoError(t, err)
	require.Equal(t, model.FinePaid, paid.Status)
	require.Nil(t, paid.PaymentNote)

	_, err = repo.MarkPaid(ctx, assessed.ID, "cash", "", borrowed.AddDays(14))
	require.ErrorIs(t, err, errs.ErrAlreadyPaid)

	total, err = repo.TotalUnpaid(ctx, user)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestRepository_NotFound(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	user := seedUser(t, db)
	day := model.MustDate("2024-03-01")

	_, err := repo.OpenLoan(ctx, user, -1, day, day)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = repo.OpenLoan(ctx, -1, seedBook(t, db, 1), day, day)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
	_, _, err = repo.CloseLoan(ctx, -1, day)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
	_, err = repo.MarkPaid(ctx, -1, "cash", "", day)
	require.ErrorIs(t, err, errs.ErrFineNotFound)
	_, err = repo.AddFine(ctx, -1, 100, "damaged cover", day)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
}

func TestRepository_ListLoansByUser(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	user := seedUser(t, db)
	book := seedBook(t, db, 3)

	for i := 0; i < 3; i++ {
		day := model.MustDate(fmt.Sprintf("2024-03-0%d", i+1))
		_, err := repo.OpenLoan(ctx, user, book, day, day.AddDays(7))
		require.NoError(t, err)
	}
	loans, err := repo.ListLoansByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, loans, 3)
	require.Equal(t, "2024-03-03", loans[0].BorrowDate.String())
	require.Equal(t, "Laskar Pelangi", loans[0].BookTitle)
	require.Equal(t, "member", loans[0].UserName)
}
