package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/handler"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/pkg/validate"

	service_mocks "github.com/Astemirdum/lending-service/lending/internal/handler/mocks"
)

type response struct {
	expectedCode int
	expectedBody string
}

func newEcho(h *handler.Handler) *echo.Echo {
	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.POST("/loans", h.Borrow)
	e.PUT("/loans/:id/return", h.ReturnBook)
	e.GET("/loans/:id", h.GetLoan)
	e.PUT("/fines/:id", h.PayFine)
	e.POST("/fines", h.AddFine)
	e.GET("/users/:userId/history", h.History)
	e.GET("/books/:id/availability", h.Availability)
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func activeLoan() model.Loan {
	return model.Loan{
		ID:         1,
		UserID:     2,
		BookID:     3,
		BorrowDate: model.MustDate("2024-01-01"),
		DueDate:    model.MustDate("2024-01-08"),
		Status:     model.LoanActive,
	}
}

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLendingService)
	dueDate := model.MustDate("2024-01-08")
	req := model.BorrowRequest{UserID: 2, BookID: 3, DueDate: &dueDate}

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"userId":2,"bookId":3,"dueDate":"2024-01-08"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().Borrow(gomock.Any(), req).Return(activeLoan(), nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"loanId":1,"loan":{"id":1,"userId":2,"bookId":3,"borrowDate":"2024-01-01","dueDate":"2024-01-08","returnDate":null,"status":"ACTIVE"}}`,
			},
		},
		{
			name:         "err. due date required",
			body:         `{"userId":2,"bookId":3}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'BorrowRequest.DueDate' Error:Field validation for 'DueDate' failed on the 'required' tag"}`,
			},
		},
		{
			name:         "err. malformed date",
			body:         `{"userId":2,"bookId":3,"dueDate":"08/01/2024"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid request body"}`,
			},
		},
		{
			name: "err. out of stock",
			body: `{"userId":2,"bookId":3,"dueDate":"2024-01-08"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().Borrow(gomock.Any(), req).Return(model.Loan{}, errs.ErrOutOfStock)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book is out of stock"}`,
			},
		},
		{
			name: "err. user not found",
			body: `{"userId":2,"bookId":3,"dueDate":"2024-01-08"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().Borrow(gomock.Any(), req).Return(model.Loan{}, errs.ErrUserNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"user not found"}`,
			},
		},
		{
			name: "err. transient",
			body: `{"userId":2,"bookId":3,"dueDate":"2024-01-08"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().Borrow(gomock.Any(), req).Return(model.Loan{}, errs.Transient(errors.New("dial tcp: connection refused")))
			},
			response: response{
				expectedCode: http.StatusServiceUnavailable,
				expectedBody: `{"message":"service temporarily unavailable"}`,
			},
		},
		{
			name: "err. internal text hidden",
			body: `{"userId":2,"bookId":3,"dueDate":"2024-01-08"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().Borrow(gomock.Any(), req).Return(model.Loan{}, errors.New("pq: relation loans does not exist"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"internal error"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			tt.mockBehavior(svc)
			e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

			w := serve(e, http.MethodPost, "/loans", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLendingService)
	returnDate := model.MustDate("2024-01-10")
	returned := activeLoan()
	returned.Status = model.LoanReturned
	returned.ReturnDate = &returnDate

	var tests = []struct {
		name         string
		target       string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok. late with fine",
			target: "/loans/1/return",
			body:   `{"returnDate":"2024-01-10"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().ReturnBook(gomock.Any(), int64(1), &returnDate).Return(model.ReturnResult{
					Loan: returned,
					Fine: &model.Fine{
						ID:           9,
						LoanID:       1,
						Amount:       1000,
						Reason:       model.OverdueReason,
						Status:       model.FineUnpaid,
						AssessedDate: returnDate,
					},
				}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"book returned late, fine assessed","loan":{"id":1,"userId":2,"bookId":3,"borrowDate":"2024-01-01","dueDate":"2024-01-08","returnDate":"2024-01-10","status":"RETURNED"},"fine":{"id":9,"loanId":1,"amount":1000,"reason":"overdue return","status":"UNPAID","assessedDate":"2024-01-10"}}`,
			},
		},
		{
			name:   "ok. no body defaults to today",
			target: "/loans/1/return",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().ReturnBook(gomock.Any(), int64(1), gomock.Nil()).Return(model.ReturnResult{Loan: returned}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"book returned","loan":{"id":1,"userId":2,"bookId":3,"borrowDate":"2024-01-01","dueDate":"2024-01-08","returnDate":"2024-01-10","status":"RETURNED"}}`,
			},
		},
		{
			name:   "err. already returned",
			target: "/loans/1/return",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().ReturnBook(gomock.Any(), int64(1), gomock.Nil()).Return(model.ReturnResult{}, errs.ErrAlreadyReturned)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"loan is already returned"}`,
			},
		},
		{
			name:   "err. loan not found",
			target: "/loans/404/return",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().ReturnBook(gomock.Any(), int64(404), gomock.Nil()).Return(model.ReturnResult{}, errs.ErrLoanNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"loan not found"}`,
			},
		},
		{
			name:         "err. bad id",
			target:       "/loans/abc/return",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"id is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			tt.mockBehavior(svc)
			e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

			w := serve(e, http.MethodPut, tt.target, tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBookEmptyChunkedBody(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().ReturnBook(gomock.Any(), int64(1), gomock.Nil()).Return(model.ReturnResult{Loan: activeLoan()}, nil)
	e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

	r := httptest.NewRequest(http.MethodPut, "/loans/1/return", http.NoBody)
	r.TransferEncoding = []string{"chunked"}
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	require.EqualValues(t, -1, r.ContentLength)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"message":"book returned"`)
}

func TestHandler_ReturnBookMalformedBody(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	e := newEcho(handler.New(service_mocks.NewMockLendingService(c), zap.NewExample().Named("test")))

	w := serve(e, http.MethodPut, "/loans/1/return", `{"returnDate":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"invalid request body"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_PayFine(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLendingService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"method":"cash","note":"front desk"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().PayFine(gomock.Any(), int64(9), model.PayFineRequest{Method: "cash", Note: "front desk"}).
					Return(model.Fine{ID: 9, Status: model.FinePaid}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"fine paid"}`,
			},
		},
		{
			name: "err. already paid",
			body: `{"method":"cash"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().PayFine(gomock.Any(), int64(9), model.PayFineRequest{Method: "cash"}).
					Return(model.Fine{}, errs.ErrAlreadyPaid)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"fine is already paid"}`,
			},
		},
		{
			name:         "err. method required",
			body:         `{"note":"x"}`,
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'PayFineRequest.Method' Error:Field validation for 'Method' failed on the 'required' tag"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			tt.mockBehavior(svc)
			e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

			w := serve(e, http.MethodPut, "/fines/9", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_AddFine(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().AddFine(gomock.Any(), model.AddFineRequest{LoanID: 1, Amount: 20000, Reason: "torn pages"}).
		Return(model.Fine{
			ID:           4,
			LoanID:       1,
			Amount:       20000,
			Reason:       "torn pages",
			Status:       model.FineUnpaid,
			AssessedDate: model.MustDate("2024-01-10"),
		}, nil)
	e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

	w := serve(e, http.MethodPost, "/fines", `{"loanId":1,"amount":20000,"reason":"torn pages"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t,
		`{"fineId":4,"fine":{"id":4,"loanId":1,"amount":20000,"reason":"torn pages","status":"UNPAID","assessedDate":"2024-01-10"}}`,
		strings.Trim(w.Body.String(), "\n"))

	w = serve(e, http.MethodPost, "/fines", `{"loanId":1,"amount":-5,"reason":"torn pages"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_History(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().History(gomock.Any(), int64(2)).Return(model.History{
		Loans:              []model.LoanSummary{},
		Fines:              []model.FineSummary{},
		TotalUnpaid:        0,
		TotalUnpaidDisplay: "Rp 0",
	}, nil)
	e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

	w := serve(e, http.MethodGet, "/users/2/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"loans":[],"fines":[],"totalUnpaid":0,"totalUnpaidDisplay":"Rp 0"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Availability(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().Availability(gomock.Any(), int64(3)).Return(model.Availability{BookID: 3, Stock: 2}, nil)
	svc.EXPECT().Availability(gomock.Any(), int64(4)).Return(model.Availability{}, errs.ErrBookNotFound)
	e := newEcho(handler.New(svc, zap.NewExample().Named("test")))

	w := serve(e, http.MethodGet, "/books/3/availability", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"bookId":3,"stock":2}`, strings.Trim(w.Body.String(), "\n"))

	w = serve(e, http.MethodGet, "/books/4/availability", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, `{"message":"book not found"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Router(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLendingService(c)
	svc.EXPECT().GetLoan(gomock.Any(), int64(1)).Return(activeLoan(), nil)
	e := handler.New(svc, zap.NewExample()).NewRouter()

	w := serve(e, http.MethodGet, "/manage/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(e, http.MethodGet, "/api/v1/loans/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(echo.HeaderXRequestID))
}
