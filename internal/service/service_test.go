package service_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openshelf/loan-ledger/internal/errs"
	"github.com/openshelf/loan-ledger/internal/model"
	"github.com/openshelf/loan-ledger/internal/service"

	repo_mocks "github.com/openshelf/loan-ledger/internal/repository/mocks"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_CreateLoan_Defaults(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, nil, zap.NewExample())

	var got model.CreateLoanRequest
	repo.EXPECT().
		CreateLoan(context.Background(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.CreateLoanRequest) (model.Loan, error) {
			got = req
			return model.Loan{LoanID: 1, UserID: req.UserID, BookID: req.BookID}, nil
		})

	_, err := svc.CreateLoan(context.Background(), model.CreateLoanRequest{UserID: 7, BookID: 3})
	require.NoError(t, err)

	require.False(t, got.LoanDate.IsZero())
	require.Equal(t, got.LoanDate.AddDate(0, 0, 14), got.DueDate.Time)
}

func TestService_CreateLoan_DueBeforeLoanDate(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, nil, zap.NewExample())

	_, err := svc.CreateLoan(context.Background(), model.CreateLoanRequest{
		UserID:   7,
		BookID:   3,
		LoanDate: model.Date{Time: date(2024, 1, 10)},
		DueDate:  model.Date{Time: date(2024, 1, 5)},
	})
	require.ErrorIs(t, err, errs.ErrInvalidDate)
}

func TestService_CreateLoan_RepoErrorsPassThrough(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, nil, zap.NewExample())

	for _, want := range []error{errs.ErrOutOfStock, errs.ErrNotFound} {
		repo.EXPECT().
			CreateLoan(context.Background(), gomock.Any()).
			Return(model.Loan{}, want)

		_, err := svc.CreateLoan(context.Background(), model.CreateLoanRequest{
			UserID:   7,
			BookID:   3,
			LoanDate: model.Date{Time: date(2024, 1, 10)},
			DueDate:  model.Date{Time: date(2024, 1, 24)},
		})
		require.ErrorIs(t, err, want)
	}
}

func TestService_ReturnLoan(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, nil, zap.NewExample())

	returned := date(2024, 1, 20)
	want := model.Loan{LoanID: 1, UserID: 7, BookID: 3, ReturnDate: &returned}
	repo.EXPECT().
		ReturnLoan(context.Background(), 1, returned).
		Return(want, nil)

	loan, err := svc.ReturnLoan(context.Background(), 1, returned)
	require.NoError(t, err)
	require.Equal(t, want, loan)
	require.False(t, loan.Open())

	repo.EXPECT().
		ReturnLoan(context.Background(), 1, returned).
		Return(model.Loan{}, errs.ErrAlreadyReturned)
	_, err = svc.ReturnLoan(context.Background(), 1, returned)
	require.ErrorIs(t, err, errs.ErrAlreadyReturned)
}

func TestService_ListOverdue_Restartable(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, nil, zap.NewExample())

	loans := []model.Loan{
		{LoanID: 1, DueDate: date(2024, 1, 10)},
		{LoanID: 2, DueDate: date(2024, 1, 12)},
	}
	asOf := date(2024, 1, 15)
	repo.EXPECT().
		ListOverdue(context.Background(), asOf).
		Return(iter.Seq2[model.Loan, error](func(yield func(model.Loan, error) bool) {
			for _, l := range loans {
				if !yield(l, nil) {
					return
				}
			}
		}))

	seq := svc.ListOverdue(context.Background(), asOf)

	// two passes over the same sequence
	for i := 0; i < 2; i++ {
		var ids []int
		for loan, err := range seq {
			require.NoError(t, err)
			ids = append(ids, loan.LoanID)
		}
		require.Equal(t, []int{1, 2}, ids)
	}
}
