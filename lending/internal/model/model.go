package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
)

type FineStatus string

const (
	FineUnpaid FineStatus = "UNPAID"
	FinePaid   FineStatus = "PAID"
)

const OverdueReason = "overdue return"

// Date is a calendar day, always UTC midnight. It travels as "2006-01-02"
// in JSON and as a postgres date.
type Date struct {
	time.Time
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		*d = Date{}
		return nil
	}
	*d = DateOf(v.Time)
	return nil
}

func (d Date) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.Time, Valid: !d.IsZero()}, nil
}

type User struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

type Book struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Author      string `json:"author" db:"author"`
	Publisher   string `json:"publisher" db:"publisher"`
	Year        int    `json:"year" db:"year"`
	ISBN        string `json:"isbn" db:"isbn"`
	Category    string `json:"category" db:"category"`
	Stock       int    `json:"stock" db:"stock"`
	Description string `json:"description" db:"description"`
}

type Availability struct {
	BookID int64 `json:"bookId"`
	Stock  int   `json:"stock"`
}

type Loan struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"userId" db:"user_id"`
	BookID     int64      `json:"bookId" db:"book_id"`
	BorrowDate Date       `json:"borrowDate" db:"borrow_date"`
	DueDate    Date       `json:"dueDate" db:"due_date"`
	ReturnDate *Date      `json:"returnDate" db:"return_date"`
	Status     LoanStatus `json:"status" db:"status"`
}

type LoanSummary struct {
	Loan
	UserName   string `json:"userName" db:"user_name"`
	BookTitle  string `json:"bookTitle" db:"book_title"`
	BookAuthor string `json:"bookAuthor" db:"book_author"`
	LateDays   int    `json:"lateDays" db:"-"`
}

type Fine struct {
	ID            int64      `json:"id" db:"id"`
	LoanID        int64      `json:"loanId" db:"loan_id"`
	Amount        int64      `json:"amount" db:"amount"`
	Reason        string     `json:"reason" db:"reason"`
	Status        FineStatus `json:"status" db:"status"`
	PaymentMethod *string    `json:"paymentMethod,omitempty" db:"payment_method"`
	PaymentNote   *string    `json:"paymentNote,omitempty" db:"payment_note"`
	PaidDate      *Date      `json:"paidDate,omitempty" db:"paid_date"`
	AssessedDate  Date       `json:"assessedDate" db:"assessed_date"`
}

type FineSummary struct {
	Fine
	UserID        int64  `json:"userId" db:"user_id"`
	UserName      string `json:"userName" db:"user_name"`
	BookTitle     string `json:"bookTitle" db:"book_title"`
	AmountDisplay string `json:"amountDisplay" db:"-"`
}

type History struct {
	Loans              []LoanSummary `json:"loans"`
	Fines              []FineSummary `json:"fines"`
	TotalUnpaid        int64         `json:"totalUnpaid"`
	TotalUnpaidDisplay string        `json:"totalUnpaidDisplay"`
}

type ReturnResult struct {
	Loan Loan  `json:"loan"`
	Fine *Fine `json:"fine,omitempty"`
}

type BorrowRequest struct {
	UserID  int64 `json:"userId" validate:"required,gt=0"`
	BookID  int64 `json:"bookId" validate:"required,gt=0"`
	DueDate *Date `json:"dueDate" validate:"required"`
}

type ReturnRequest struct {
	ReturnDate *Date `json:"returnDate"`
}

type PayFineRequest struct {
	Method string `json:"method" validate:"required,max=64"`
	Note   string `json:"note" validate:"max=255"`
}

type AddFineRequest struct {
	LoanID int64  `json:"loanId" validate:"required,gt=0"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

type BorrowResponse struct {
	LoanID int64 `json:"loanId"`
	Loan   Loan  `json:"loan"`
}

type ReturnResponse struct {
	Message string `json:"message"`
	ReturnResult
}

type AddFineResponse struct {
	FineID int64 `json:"fineId"`
	Fine   Fine  `json:"fine"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
