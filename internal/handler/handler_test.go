package handler_test

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openshelf/loan-ledger/internal/errs"
	"github.com/openshelf/loan-ledger/internal/handler"
	"github.com/openshelf/loan-ledger/internal/model"
	"github.com/openshelf/loan-ledger/pkg/validate"

	service_mocks "github.com/openshelf/loan-ledger/internal/handler/mocks"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHandler_CreateLoan(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLedgerService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"userId":7,"bookId":3,"loanDate":"2024-01-10","dueDate":"2024-01-24"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					CreateLoan(context.Background(), model.CreateLoanRequest{
						UserID:   7,
						BookID:   3,
						LoanDate: model.Date{Time: date(2024, 1, 10)},
						DueDate:  model.Date{Time: date(2024, 1, 24)},
					}).
					Return(model.Loan{
						LoanID:   1,
						UserID:   7,
						BookID:   3,
						LoanDate: date(2024, 1, 10),
						DueDate:  date(2024, 1, 24),
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"loanId":1,"userId":7,"bookId":3,"loanDate":"2024-01-10T00:00:00Z","dueDate":"2024-01-24T00:00:00Z"}`,
			},
		},
		{
			name: "err. out of stock",
			body: `{"userId":7,"bookId":3,"loanDate":"2024-01-10","dueDate":"2024-01-24"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					CreateLoan(context.Background(), gomock.Any()).
					Return(model.Loan{}, errs.ErrOutOfStock)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no available copies"}`,
			},
		},
		{
			name: "err. book not found",
			body: `{"userId":7,"bookId":999,"loanDate":"2024-01-10","dueDate":"2024-01-24"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					CreateLoan(context.Background(), gomock.Any()).
					Return(model.Loan{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name:         "err. missing userId",
			body:         `{"bookId":3}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLedgerService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/loans", h.CreateLoan)

			r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_ReturnLoan(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLedgerService)

	returned := date(2024, 1, 20)

	var tests = []struct {
		name         string
		loanID       string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			loanID: "1",
			body:   `{"date":"2024-01-20"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ReturnLoan(context.Background(), 1, date(2024, 1, 20)).
					Return(model.Loan{
						LoanID:     1,
						UserID:     7,
						BookID:     3,
						LoanDate:   date(2024, 1, 10),
						DueDate:    date(2024, 1, 24),
						ReturnDate: &returned,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"loanId":1,"userId":7,"bookId":3,"loanDate":"2024-01-10T00:00:00Z","dueDate":"2024-01-24T00:00:00Z","returnDate":"2024-01-20T00:00:00Z"}`,
			},
		},
		{
			name:   "err. already returned",
			loanID: "1",
			body:   `{"date":"2024-01-20"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ReturnLoan(context.Background(), 1, date(2024, 1, 20)).
					Return(model.Loan{}, errs.ErrAlreadyReturned)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"loan already returned"}`,
			},
		},
		{
			name:   "err. return before loan date",
			loanID: "1",
			body:   `{"date":"2024-01-05"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ReturnLoan(context.Background(), 1, date(2024, 1, 5)).
					Return(model.Loan{}, errs.ErrInvalidDate)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid date"}`,
			},
		},
		{
			name:   "err. not found",
			loanID: "42",
			body:   `{"date":"2024-01-20"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ReturnLoan(context.Background(), 42, date(2024, 1, 20)).
					Return(model.Loan{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name:         "err. bad loan id",
			loanID:       "abc",
			body:         `{"date":"2024-01-20"}`,
			mockBehavior: func(r *service_mocks.MockLedgerService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid loanId"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLedgerService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/loans/:loanId/return", h.ReturnLoan)

			r := httptest.NewRequest(http.MethodPost, "/loans/"+tt.loanID+"/return", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ListOverdue(t *testing.T) {
	t.Parallel()

	overdue := model.Loan{
		LoanID:   1,
		UserID:   7,
		BookID:   3,
		LoanDate: date(2024, 1, 1),
		DueDate:  date(2024, 1, 10),
	}
	seqOf := func(loans ...model.Loan) iter.Seq2[model.Loan, error] {
		return func(yield func(model.Loan, error) bool) {
			for _, l := range loans {
				if !yield(l, nil) {
					return
				}
			}
		}
	}

	type response struct {
		expectedCode int
		expectedBody string
	}
	var tests = []struct {
		name         string
		asOf         string
		mockBehavior func(r *service_mocks.MockLedgerService)
		response     response
	}{
		{
			name: "includes loan past due",
			asOf: "2024-01-15",
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ListOverdue(context.Background(), date(2024, 1, 15)).
					Return(seqOf(overdue))
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"loanId":1,"userId":7,"bookId":3,"loanDate":"2024-01-01T00:00:00Z","dueDate":"2024-01-10T00:00:00Z"}]`,
			},
		},
		{
			name: "excludes loan not yet due",
			asOf: "2024-01-05",
			mockBehavior: func(r *service_mocks.MockLedgerService) {
				r.EXPECT().
					ListOverdue(context.Background(), date(2024, 1, 5)).
					Return(seqOf())
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[]`,
			},
		},
		{
			name:         "err. bad asOf",
			asOf:         "not-a-date",
			mockBehavior: func(r *service_mocks.MockLedgerService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid asOf"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLedgerService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/loans/overdue", h.ListOverdue)

			r := httptest.NewRequest(http.MethodGet, "/loans/overdue?asOf="+tt.asOf, http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetStats(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLedgerService(c)
	h := handler.New(svc, zap.NewExample().Named("test"))

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/stats", h.GetStats)

	svc.EXPECT().
		GetStats(context.Background()).
		Return(model.Stats{TotalTitles: 3, TotalCopies: 10, OpenLoans: 2, TotalUsers: 5}, nil)

	r := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`{"totalTitles":3,"totalCopies":10,"openLoans":2,"totalUsers":5}`,
		strings.Trim(w.Body.String(), "\n"))
}
