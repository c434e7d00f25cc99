// Package memory is an in-memory Repository used to exercise the service
// layer without a running postgres. A single mutex stands in for the row
// locks the SQL implementation relies on.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
)

type Store struct {
	mu    sync.Mutex
	calc  *fine.Calculator
	users map[int64]model.User
	books map[int64]model.Book
	loans map[int64]model.Loan
	fines map[int64]model.Fine

	nextID int64
	err    error
	calls  map[string]int
}

var _ repository.Repository = (*Store)(nil)

func NewStore(calc *fine.Calculator) *Store {
	return &Store{
		calc:  calc,
		users: make(map[int64]model.User),
		books: make(map[int64]model.Book),
		loans: make(map[int64]model.Loan),
		fines: make(map[int64]model.Fine),
		calls: make(map[string]int),
	}
}

// WithError makes every subsequent call fail with err.
func (s *Store) WithError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// Calls reports how many times the named method has been invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Store) AddUser(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.users[s.nextID] = model.User{ID: s.nextID, Name: name, Email: strings.ToLower(name) + "@example.org"}
	return s.nextID
}

func (s *Store) AddBook(title string, stock int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.books[s.nextID] = model.Book{ID: s.nextID, Title: title, Author: "anon", Stock: stock}
	return s.nextID
}

func (s *Store) Stock(bookID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[bookID].Stock
}

func (s *Store) enter(method string) error {
	s.calls[method]++
	return s.err
}

func (s *Store) GetAvailability(_ context.Context, bookID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetAvailability"); err != nil {
		return 0, err
	}
	b, ok := s.books[bookID]
	if !ok {
		return 0, errs.ErrBookNotFound
	}
	return b.Stock, nil
}

func (s *Store) OpenLoan(_ context.Context, userID, bookID int64, borrowDate, dueDate model.Date) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("OpenLoan"); err != nil {
		return model.Loan{}, err
	}
	if dueDate.Before(borrowDate.Time) {
		return model.Loan{}, errs.Validation("due date %s is before borrow date %s", dueDate, borrowDate)
	}
	if _, ok := s.users[userID]; !ok {
		return model.Loan{}, errs.ErrUserNotFound
	}
	book, ok := s.books[bookID]
	if !ok {
		return model.Loan{}, errs.ErrBookNotFound
	}
	if book.Stock <= 0 {
		return model.Loan{}, errs.ErrOutOfStock
	}
	book.Stock--
	s.books[bookID] = book

	s.nextID++
	loan := model.Loan{
		ID:         s.nextID,
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		Status:     model.LoanActive,
	}
	s.loans[loan.ID] = loan
	return loan, nil
}

func (s *Store) CloseLoan(_ context.Context, loanID int64, returnDate model.Date) (model.Loan, *model.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CloseLoan"); err != nil {
		return model.Loan{}, nil, err
	}
	loan, ok := s.loans[loanID]
	if !ok {
		return model.Loan{}, nil, errs.ErrLoanNotFound
	}
	if loan.Status != model.LoanActive {
		return model.Loan{}, nil, errs.ErrAlreadyReturned
	}
	if returnDate.Before(loan.BorrowDate.Time) {
		return model.Loan{}, nil, errs.Validation("return date %s is before borrow date %s", returnDate, loan.BorrowDate)
	}

	rd := returnDate
	loan.Status = model.LoanReturned
	loan.ReturnDate = &rd
	s.loans[loanID] = loan

	book := s.books[loan.BookID]
	book.Stock++
	s.books[loan.BookID] = book

	f, late := s.calc.Assess(loan, returnDate)
	if !late {
		return loan, nil, nil
	}
	s.nextID++
	f.ID = s.nextID
	s.fines[f.ID] = f
	return loan, &f, nil
}

func (s *Store) GetLoan(_ context.Context, loanID int64) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetLoan"); err != nil {
		return model.Loan{}, err
	}
	loan, ok := s.loans[loanID]
	if !ok {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	return loan, nil
}

func (s *Store) summarize(loan model.Loan) model.LoanSummary {
	book := s.books[loan.BookID]
	return model.LoanSummary{
		Loan:       loan,
		UserName:   s.users[loan.UserID].Name,
		BookTitle:  book.Title,
		BookAuthor: book.Author,
	}
}

func (s *Store) ListLoansByUser(_ context.Context, userID int64) ([]model.LoanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListLoansByUser"); err != nil {
		return nil, err
	}
	out := make([]model.LoanSummary, 0)
	for _, l := range s.loans {
		if l.UserID == userID {
			out = append(out, s.summarize(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BorrowDate.Equal(out[j].BorrowDate.Time) {
			return out[i].BorrowDate.After(out[j].BorrowDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListLoans(_ context.Context) ([]model.LoanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListLoans"); err != nil {
		return nil, err
	}
	out := make([]model.LoanSummary, 0, len(s.loans))
	for _, l := range s.loans {
		out = append(out, s.summarize(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) AddFine(_ context.Context, loanID, amount int64, reason string, assessedDate model.Date) (model.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AddFine"); err != nil {
		return model.Fine{}, err
	}
	if amount <= 0 {
		return model.Fine{}, errs.Validation("amount must be positive")
	}
	if strings.TrimSpace(reason) == "" {
		return model.Fine{}, errs.Validation("reason is required")
	}
	if _, ok := s.loans[loanID]; !ok {
		return model.Fine{}, errs.ErrLoanNotFound
	}
	s.nextID++
	f := model.Fine{
		ID:           s.nextID,
		LoanID:       loanID,
		Amount:       amount,
		Reason:       reason,
		Status:       model.FineUnpaid,
		AssessedDate: assessedDate,
	}
	s.fines[f.ID] = f
	return f, nil
}

func (s *Store) MarkPaid(_ context.Context, fineID int64, method, note string, paidDate model.Date) (model.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkPaid"); err != nil {
		return model.Fine{}, err
	}
	if strings.TrimSpace(method) == "" {
		return model.Fine{}, errs.Validation("payment method is required")
	}
	f, ok := s.fines[fineID]
	if !ok {
		return model.Fine{}, errs.ErrFineNotFound
	}
	if f.Status == model.FinePaid {
		return model.Fine{}, errs.ErrAlreadyPaid
	}
	pd := paidDate
	f.Status = model.FinePaid
	f.PaymentMethod = &method
	if note != "" {
		f.PaymentNote = &note
	}
	f.PaidDate = &pd
	s.fines[fineID] = f
	return f, nil
}

func (s *Store) TotalUnpaid(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("TotalUnpaid"); err != nil {
		return 0, err
	}
	var amounts []int64
	for _, f := range s.fines {
		if f.Status == model.FineUnpaid && s.loans[f.LoanID].UserID == userID {
			amounts = append(amounts, f.Amount)
		}
	}
	return s.calc.Sum(amounts...), nil
}

func (s *Store) fineSummary(f model.Fine) model.FineSummary {
	loan := s.loans[f.LoanID]
	return model.FineSummary{
		Fine:      f,
		UserID:    loan.UserID,
		UserName:  s.users[loan.UserID].Name,
		BookTitle: s.books[loan.BookID].Title,
	}
}

func (s *Store) ListFinesByUser(_ context.Context, userID int64) ([]model.FineSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListFinesByUser"); err != nil {
		return nil, err
	}
	out := make([]model.FineSummary, 0)
	for _, f := range s.fines {
		if s.loans[f.LoanID].UserID == userID {
			out = append(out, s.fineSummary(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListFines(_ context.Context) ([]model.FineSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListFines"); err != nil {
		return nil, err
	}
	out := make([]model.FineSummary, 0, len(s.fines))
	for _, f := range s.fines {
		out = append(out, s.fineSummary(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
