// Package fine derives overdue penalties from loan dates.
//
// Amounts are integer minor units of a single configured currency; the
// calculator never touches floating point.
package fine

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/pkg/errors"

	"github.com/Astemirdum/lending-service/lending/internal/model"
)

const day = 24 * time.Hour

type Calculator struct {
	dailyRate *money.Money
	currency  string
}

func NewCalculator(dailyRate int64, currency string) (*Calculator, error) {
	if dailyRate <= 0 {
		return nil, errors.Errorf("daily rate must be positive, got %d", dailyRate)
	}
	if money.GetCurrency(currency) == nil {
		return nil, errors.Errorf("unknown currency %q", currency)
	}
	return &Calculator{
		dailyRate: money.New(dailyRate, currency),
		currency:  currency,
	}, nil
}

func (c *Calculator) DailyRate() int64 { return c.dailyRate.Amount() }

func (c *Calculator) Currency() string { return c.currency }

// LateDays is max(0, asOf - due) in whole days.
func (c *Calculator) LateDays(due, asOf model.Date) int {
	d := model.DateOf(asOf.Time).Sub(model.DateOf(due.Time).Time)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

// Assess builds the overdue fine for loan as of asOf. ok is false when the
// loan is not late and nothing should be charged.
func (c *Calculator) Assess(loan model.Loan, asOf model.Date) (f model.Fine, ok bool) {
	days := c.LateDays(loan.DueDate, asOf)
	if days == 0 {
		return model.Fine{}, false
	}
	amount := c.dailyRate.Multiply(int64(days))
	return model.Fine{
		LoanID:       loan.ID,
		Amount:       amount.Amount(),
		Reason:       model.OverdueReason,
		Status:       model.FineUnpaid,
		AssessedDate: model.DateOf(asOf.Time),
	}, true
}

// Sum adds amounts in the calculator currency.
func (c *Calculator) Sum(amounts ...int64) int64 {
	total := money.New(0, c.currency)
	for _, a := range amounts {
		next, err := total.Add(money.New(a, c.currency))
		if err != nil {
			// same currency on both sides, cannot mismatch
			panic(err)
		}
		total = next
	}
	return total.Amount()
}

func (c *Calculator) Display(amount int64) string {
	return money.New(amount, c.currency).Display()
}
