package service

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/openshelf/loan-ledger/internal/errs"
	"github.com/openshelf/loan-ledger/internal/model"
	"github.com/openshelf/loan-ledger/internal/repository"
)

// loanPeriodDays is the default loan period when the caller
// does not set a due date.
const loanPeriodDays = 14

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events *Publisher
}

func NewService(repo repository.Repository, events *Publisher, log *zap.Logger) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		events: events,
	}
}

func (s *Service) CreateLoan(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error) {
	if req.LoanDate.IsZero() {
		req.LoanDate = model.Date{Time: time.Now().UTC()}
	}
	if req.DueDate.IsZero() {
		req.DueDate = model.Date{Time: req.LoanDate.AddDate(0, 0, loanPeriodDays)}
	}
	if !req.DueDate.After(req.LoanDate.Time) {
		return model.Loan{}, errs.ErrInvalidDate
	}

	loan, err := s.repo.CreateLoan(ctx, req)
	if err != nil {
		return model.Loan{}, err
	}
	s.events.Publish(model.LoanCreated, loan)
	return loan, nil
}

func (s *Service) ReturnLoan(ctx context.Context, loanID int, returnDate time.Time) (model.Loan, error) {
	loan, err := s.repo.ReturnLoan(ctx, loanID, returnDate)
	if err != nil {
		return model.Loan{}, err
	}
	s.events.Publish(model.LoanReturned, loan)
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID int) (model.Loan, error) {
	return s.repo.GetLoan(ctx, loanID)
}

func (s *Service) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	return s.repo.ListLoans(ctx, filter)
}

func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) iter.Seq2[model.Loan, error] {
	return s.repo.ListOverdue(ctx, asOf)
}

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	return s.repo.CreateUser(ctx, req)
}

func (s *Service) GetUser(ctx context.Context, userID int) (model.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) UpdateUserRole(ctx context.Context, userID int, role model.Role) error {
	return s.repo.UpdateUserRole(ctx, userID, role)
}

func (s *Service) UpdateUserPermissions(ctx context.Context, userID int, permissions string) error {
	return s.repo.UpdateUserPermissions(ctx, userID, permissions)
}

func (s *Service) DeleteUser(ctx context.Context, userID int) error {
	return s.repo.DeleteUser(ctx, userID)
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *Service) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) ListBooks(ctx context.Context, search model.BookSearch) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, search)
}

func (s *Service) UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, bookID, req)
}

func (s *Service) DeleteBook(ctx context.Context, bookID int) error {
	return s.repo.DeleteBook(ctx, bookID)
}

func (s *Service) GetStats(ctx context.Context) (model.Stats, error) {
	return s.repo.GetStats(ctx)
}
