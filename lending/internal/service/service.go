package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/lending-service/lending/internal/cache"
	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/events"
	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
	"github.com/Astemirdum/lending-service/pkg/kafka"
)

type Service struct {
	log   *zap.Logger
	repo  repository.Repository
	calc  *fine.Calculator
	cache *cache.HistoryCache
	pub   events.Publisher
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	repo repository.Repository,
	calc *fine.Calculator,
	historyCache *cache.HistoryCache,
	pub events.Publisher,
	log *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		log:   log.Named("service"),
		repo:  repo,
		calc:  calc,
		cache: historyCache,
		pub:   pub,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now())
}

// Borrow opens a loan dated today.
func (s *Service) Borrow(ctx context.Context, req model.BorrowRequest) (model.Loan, error) {
	if req.DueDate == nil {
		return model.Loan{}, errs.Validation("due date is required")
	}
	loan, err := s.repo.OpenLoan(ctx, req.UserID, req.BookID, s.today(), *req.DueDate)
	if err != nil {
		return model.Loan{}, err
	}

	ev := kafka.NewEvent(kafka.EventLoanOpened, loan.UserID)
	ev.LoanID, ev.BookID = loan.ID, loan.BookID
	s.afterWrite(ctx, loan.UserID, ev)
	return loan, nil
}

// ReturnBook closes the loan; returnDate defaults to today.
func (s *Service) ReturnBook(ctx context.Context, loanID int64, returnDate *model.Date) (model.ReturnResult, error) {
	rd := s.today()
	if returnDate != nil {
		rd = *returnDate
	}
	loan, assessed, err := s.repo.CloseLoan(ctx, loanID, rd)
	if err != nil {
		return model.ReturnResult{}, err
	}

	closed := kafka.NewEvent(kafka.EventLoanClosed, loan.UserID)
	closed.LoanID, closed.BookID = loan.ID, loan.BookID
	evs := []kafka.Event{closed}
	if assessed != nil {
		fined := kafka.NewEvent(kafka.EventFineAssessed, loan.UserID)
		fined.LoanID, fined.FineID, fined.Amount = loan.ID, assessed.ID, assessed.Amount
		evs = append(evs, fined)
	}
	s.afterWrite(ctx, loan.UserID, evs...)
	return model.ReturnResult{Loan: loan, Fine: assessed}, nil
}

// History assembles a member's loans, fines and unpaid total. Served from
// the cache when possible; otherwise loans and fines are read concurrently.
// The two reads are not a snapshot: a return committing between them can
// show its fine next to a loan still marked active. The total is summed from
// the fines that were read, so it always agrees with the listed fines.
func (s *Service) History(ctx context.Context, userID int64) (model.History, error) {
	if h, ok := s.cache.Get(userID); ok {
		return h, nil
	}

	var (
		loans []model.LoanSummary
		fines []model.FineSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loans, err = s.repo.ListLoansByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		fines, err = s.repo.ListFinesByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.History{}, err
	}

	total := s.unpaidTotal(fines)
	h := model.History{
		Loans:              s.withLateDays(loans),
		Fines:              s.withDisplay(fines),
		TotalUnpaid:        total,
		TotalUnpaidDisplay: s.calc.Display(total),
	}
	s.cache.Set(userID, h)
	return h, nil
}

func (s *Service) unpaidTotal(fines []model.FineSummary) int64 {
	amounts := make([]int64, 0, len(fines))
	for _, f := range fines {
		if f.Status == model.FineUnpaid {
			amounts = append(amounts, f.Amount)
		}
	}
	return s.calc.Sum(amounts...)
}

func (s *Service) withLateDays(loans []model.LoanSummary) []model.LoanSummary {
	today := s.today()
	for i := range loans {
		asOf := today
		if loans[i].ReturnDate != nil {
			asOf = *loans[i].ReturnDate
		}
		loans[i].LateDays = s.calc.LateDays(loans[i].DueDate, asOf)
	}
	return loans
}

func (s *Service) withDisplay(fines []model.FineSummary) []model.FineSummary {
	for i := range fines {
		fines[i].AmountDisplay = s.calc.Display(fines[i].Amount)
	}
	return fines
}

func (s *Service) GetLoan(ctx context.Context, loanID int64) (model.Loan, error) {
	return s.repo.GetLoan(ctx, loanID)
}

func (s *Service) ListLoans(ctx context.Context) ([]model.LoanSummary, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	return s.withLateDays(loans), nil
}

func (s *Service) LoansByUser(ctx context.Context, userID int64) ([]model.LoanSummary, error) {
	loans, err := s.repo.ListLoansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withLateDays(loans), nil
}

func (s *Service) ListFines(ctx context.Context) ([]model.FineSummary, error) {
	fines, err := s.repo.ListFines(ctx)
	if err != nil {
		return nil, err
	}
	return s.withDisplay(fines), nil
}

func (s *Service) FinesByUser(ctx context.Context, userID int64) ([]model.FineSummary, error) {
	fines, err := s.repo.ListFinesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withDisplay(fines), nil
}

func (s *Service) TotalUnpaid(ctx context.Context, userID int64) (int64, error) {
	return s.repo.TotalUnpaid(ctx, userID)
}

func (s *Service) PayFine(ctx context.Context, fineID int64, req model.PayFineRequest) (model.Fine, error) {
	paid, err := s.repo.MarkPaid(ctx, fineID, req.Method, req.Note, s.today())
	if err != nil {
		return model.Fine{}, err
	}
	loan, err := s.repo.GetLoan(ctx, paid.LoanID)
	if err != nil {
		// The payment is committed; without the owner only the cache TTL
		// bounds staleness.
		s.log.Warn("pay fine: loan lookup", zap.Int64("fine", paid.ID), zap.Error(err))
		return paid, nil
	}

	ev := kafka.NewEvent(kafka.EventFinePaid, loan.UserID)
	ev.LoanID, ev.FineID, ev.Amount = loan.ID, paid.ID, paid.Amount
	s.afterWrite(ctx, loan.UserID, ev)
	return paid, nil
}

// AddFine records a manual fine (damage, lost item) against a loan.
func (s *Service) AddFine(ctx context.Context, req model.AddFineRequest) (model.Fine, error) {
	f, err := s.repo.AddFine(ctx, req.LoanID, req.Amount, req.Reason, s.today())
	if err != nil {
		return model.Fine{}, err
	}
	loan, err := s.repo.GetLoan(ctx, f.LoanID)
	if err != nil {
		s.log.Warn("add fine: loan lookup", zap.Int64("fine", f.ID), zap.Error(err))
		return f, nil
	}

	ev := kafka.NewEvent(kafka.EventFineAssessed, loan.UserID)
	ev.LoanID, ev.FineID, ev.Amount = loan.ID, f.ID, f.Amount
	s.afterWrite(ctx, loan.UserID, ev)
	return f, nil
}

func (s *Service) Availability(ctx context.Context, bookID int64) (model.Availability, error) {
	stock, err := s.repo.GetAvailability(ctx, bookID)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{BookID: bookID, Stock: stock}, nil
}

// InvalidateHistory drops cached histories. Called by the event consumer for
// writes made on other instances.
func (s *Service) InvalidateHistory(userIDs ...int64) {
	s.cache.Invalidate(userIDs...)
}

// afterWrite runs once the transaction has committed. Failures here are
// logged and never returned.
func (s *Service) afterWrite(ctx context.Context, userID int64, evs ...kafka.Event) {
	s.cache.Invalidate(userID)
	for _, ev := range evs {
		if err := s.pub.Publish(ctx, ev); err != nil {
			s.log.Warn("publish", zap.String("type", string(ev.Type)), zap.Int64("user", userID), zap.Error(err))
		}
	}
}
