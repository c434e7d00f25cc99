package handler

import (
	"context"

	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	Borrow(ctx context.Context, req model.BorrowRequest) (model.Loan, error)
	ReturnBook(ctx context.Context, loanID int64, returnDate *model.Date) (model.ReturnResult, error)
	GetLoan(ctx context.Context, loanID int64) (model.Loan, error)
	ListLoans(ctx context.Context) ([]model.LoanSummary, error)
	LoansByUser(ctx context.Context, userID int64) ([]model.LoanSummary, error)
	ListFines(ctx context.Context) ([]model.FineSummary, error)
	FinesByUser(ctx context.Context, userID int64) ([]model.FineSummary, error)
	PayFine(ctx context.Context, fineID int64, req model.PayFineRequest) (model.Fine, error)
	AddFine(ctx context.Context, req model.AddFineRequest) (model.Fine, error)
	History(ctx context.Context, userID int64) (model.History, error)
	Availability(ctx context.Context, bookID int64) (model.Availability, error)
}

var _ LendingService = (*service.Service)(nil)
