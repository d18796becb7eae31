package handler

import (
	"context"
	"iter"
	"time"

	"github.com/openshelf/loan-ledger/internal/model"
	"github.com/openshelf/loan-ledger/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LedgerService interface {
	CreateLoan(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanID int, returnDate time.Time) (model.Loan, error)
	GetLoan(ctx context.Context, loanID int) (model.Loan, error)
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time) iter.Seq2[model.Loan, error]

	CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error)
	GetUser(ctx context.Context, userID int) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, userID int, role model.Role) error
	UpdateUserPermissions(ctx context.Context, userID int, permissions string) error
	DeleteUser(ctx context.Context, userID int) error

	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookID int) (model.Book, error)
	ListBooks(ctx context.Context, search model.BookSearch) (model.ListBooks, error)
	UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookID int) error

	GetStats(ctx context.Context) (model.Stats, error)
}

var _ LedgerService = (*service.Service)(nil)
