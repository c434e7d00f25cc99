package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	md "github.com/Astemirdum/lending-service/pkg/middleware"
	"github.com/Astemirdum/lending-service/pkg/validate"
	_ "github.com/Astemirdum/lending-service/swagger"
)

const (
	msgInternal    = "internal error"
	msgUnavailable = "service temporarily unavailable"
)

type Handler struct {
	lendingSvc LendingService
	log        *zap.Logger
}

func New(lendingSvc LendingService, log *zap.Logger) *Handler {
	return &Handler{
		lendingSvc: lendingSvc,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	h.register(api)

	return e
}

func (h *Handler) register(api *echo.Group) {
	api.POST("/loans", h.Borrow)
	api.GET("/loans", h.ListLoans)
	api.GET("/loans/:id", h.GetLoan)
	api.PUT("/loans/:id/return", h.ReturnBook)
	api.GET("/loans/user/:userId", h.LoansByUser)

	api.GET("/fines", h.ListFines)
	api.POST("/fines", h.AddFine)
	api.GET("/fines/user/:userId", h.FinesByUser)
	api.PUT("/fines/:id", h.PayFine)

	api.GET("/users/:userId/history", h.History)
	api.GET("/books/:id/availability", h.Availability)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Borrow
// @Summary borrow a book
// @Tags loans
// @Accept json
// @Produce json
// @Param input body model.BorrowRequest true "borrow request"
// @Success 201 {object} model.BorrowResponse
// @Failure 400,404,409 {object} echo.HTTPError
// @Router /api/v1/loans [post]
func (h *Handler) Borrow(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.lendingSvc.Borrow(c.Request().Context(), req)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, model.BorrowResponse{LoanID: loan.ID, Loan: loan})
}

// ReturnBook
// @Summary return a borrowed book
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "loan id"
// @Param input body model.ReturnRequest false "return date, defaults to today"
// @Success 200 {object} model.ReturnResponse
// @Failure 400,404,409 {object} echo.HTTPError
// @Router /api/v1/loans/{id}/return [put]
func (h *Handler) ReturnBook(c echo.Context) error {
	loanID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	// the body is optional, an empty one means "return today"
	var req model.ReturnRequest
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.lendingSvc.ReturnBook(c.Request().Context(), loanID, req.ReturnDate)
	if err != nil {
		return h.httpError(c, err)
	}
	msg := "book returned"
	if res.Fine != nil {
		msg = "book returned late, fine assessed"
	}
	return c.JSON(http.StatusOK, model.ReturnResponse{Message: msg, ReturnResult: res})
}

// GetLoan
// @Summary get a loan
// @Tags loans
// @Produce json
// @Param id path int true "loan id"
// @Success 200 {object} model.Loan
// @Failure 400,404 {object} echo.HTTPError
// @Router /api/v1/loans/{id} [get]
func (h *Handler) GetLoan(c echo.Context) error {
	loanID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.lendingSvc.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}

// ListLoans
// @Summary list all loans
// @Tags loans
// @Produce json
// @Success 200 {array} model.LoanSummary
// @Router /api/v1/loans [get]
func (h *Handler) ListLoans(c echo.Context) error {
	loans, err := h.lendingSvc.ListLoans(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, loans)
}

// LoansByUser
// @Summary list a member's loans
// @Tags loans
// @Produce json
// @Param userId path int true "member id"
// @Success 200 {array} model.LoanSummary
// @Router /api/v1/loans/user/{userId} [get]
func (h *Handler) LoansByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	loans, err := h.lendingSvc.LoansByUser(c.Request().Context(), userID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, loans)
}

// ListFines
// @Summary list all fines
// @Tags fines
// @Produce json
// @Success 200 {array} model.FineSummary
// @Router /api/v1/fines [get]
func (h *Handler) ListFines(c echo.Context) error {
	fines, err := h.lendingSvc.ListFines(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, fines)
}

// FinesByUser
// @Summary list a member's fines
// @Tags fines
// @Produce json
// @Param userId path int true "member id"
// @Success 200 {array} model.FineSummary
// @Router /api/v1/fines/user/{userId} [get]
func (h *Handler) FinesByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	fines, err := h.lendingSvc.FinesByUser(c.Request().Context(), userID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, fines)
}

// AddFine
// @Summary charge a manual fine
// @Tags fines
// @Accept json
// @Produce json
// @Param input body model.AddFineRequest true "fine"
// @Success 201 {object} model.AddFineResponse
// @Failure 400,404 {object} echo.HTTPError
// @Router /api/v1/fines [post]
func (h *Handler) AddFine(c echo.Context) error {
	var req model.AddFineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.lendingSvc.AddFine(c.Request().Context(), req)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, model.AddFineResponse{FineID: f.ID, Fine: f})
}

// PayFine
// @Summary pay a fine
// @Tags fines
// @Accept json
// @Produce json
// @Param id path int true "fine id"
// @Param input body model.PayFineRequest true "payment"
// @Success 200 {object} model.MessageResponse
// @Failure 400,404,409 {object} echo.HTTPError
// @Router /api/v1/fines/{id} [put]
func (h *Handler) PayFine(c echo.Context) error {
	fineID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.PayFineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.lendingSvc.PayFine(c.Request().Context(), fineID, req); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "fine paid"})
}

// History
// @Summary member lending history
// @Tags users
// @Produce json
// @Param userId path int true "member id"
// @Success 200 {object} model.History
// @Router /api/v1/users/{userId}/history [get]
func (h *Handler) History(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	hist, err := h.lendingSvc.History(c.Request().Context(), userID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}

// Availability
// @Summary copies of a book on the shelf
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Availability
// @Failure 400,404 {object} echo.HTTPError
// @Router /api/v1/books/{id}/availability [get]
func (h *Handler) Availability(c echo.Context) error {
	bookID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	av, err := h.lendingSvc.Availability(c.Request().Context(), bookID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

// httpError maps domain errors to statuses. Only domain messages reach the
// client; anything else is logged and reported generically.
func (h *Handler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		h.log.Warn("unavailable", zap.String("path", c.Path()), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, msgUnavailable)
	}
	h.log.Error("internal", zap.String("path", c.Path()), zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}
