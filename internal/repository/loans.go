package repository

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	sq "github.com/Masterminds/squirrel"

	"github.com/openshelf/loan-ledger/internal/errs"
	"github.com/openshelf/loan-ledger/internal/model"
)

var loanColumns = []string{"loan_id", "user_id", "book_id", "loan_date", "due_date", "return_date"}

// CreateLoan inserts an open loan and decrements the book's available
// copies in one transaction. The book row is locked for the duration,
// so concurrent callers racing for the last copy serialize and exactly
// one of them wins.
func (r *repository) CreateLoan(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	// for share keeps a concurrent user delete from slipping in between
	// this check and the insert, so a missing user is always ErrNotFound
	var userID int
	err = tx.QueryRowContext(ctx,
		`select user_id from users where user_id = $1 for share`, req.UserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}

	var available int
	err = tx.QueryRowContext(ctx,
		`select available_quantity from books where book_id = $1 for update`, req.BookID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	if available == 0 {
		return model.Loan{}, errs.ErrOutOfStock
	}

	if _, err := tx.ExecContext(ctx,
		`update books set available_quantity = available_quantity - 1 where book_id = $1`, req.BookID); err != nil {
		return model.Loan{}, wrapPgErr(err)
	}

	q, args, err := qb.Insert(loansTableName).
		Columns("user_id", "book_id", "loan_date", "due_date").
		Values(req.UserID, req.BookID, req.LoanDate.Format(time.DateOnly), req.DueDate.Format(time.DateOnly)).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	var loan model.Loan
	if err := tx.GetContext(ctx, &loan, q, args...); err != nil {
		r.log.Error("CreateLoan", zap.String("q", q), zap.Any("args", args))
		return model.Loan{}, wrapPgErr(err)
	}

	return loan, tx.Commit()
}

// ReturnLoan closes an open loan and gives the copy back to the book.
// A closed loan is terminal; returning it again fails.
func (r *repository) ReturnLoan(ctx context.Context, loanID int, returnDate time.Time) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		bookID   int
		loanDate time.Time
		returned sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		`select book_id, loan_date, return_date from loans where loan_id = $1 for update`, loanID).
		Scan(&bookID, &loanDate, &returned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	if returned.Valid {
		return model.Loan{}, errs.ErrAlreadyReturned
	}
	if returnDate.Before(loanDate) {
		return model.Loan{}, errs.ErrInvalidDate
	}

	q, args, err := qb.Update(loansTableName).
		Set("return_date", returnDate.Format(time.DateOnly)).
		Where(sq.Eq{"loan_id": loanID}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	var loan model.Loan
	if err := tx.GetContext(ctx, &loan, q, args...); err != nil {
		return model.Loan{}, wrapPgErr(err)
	}

	// capped at quantity in case the count was adjusted out of band
	if _, err := tx.ExecContext(ctx,
		`update books set available_quantity = least(available_quantity + 1, quantity) where book_id = $1`, bookID); err != nil {
		return model.Loan{}, wrapPgErr(err)
	}

	return loan, tx.Commit()
}

func (r *repository) GetLoan(ctx context.Context, loanID int) (model.Loan, error) {
	q, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"loan_id": loanID}).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	b := qb.Select(loanColumns...).
		From(loansTableName).
		OrderBy("loan_date desc", "loan_id desc")
	if filter.UserID != nil {
		b = b.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.OnlyOpen {
		b = b.Where(sq.Expr("return_date is null"))
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

// ListOverdue yields open loans whose due date precedes asOf, ordered by
// due date then loan id. The query runs when the sequence is ranged over,
// and each new range re-executes it.
func (r *repository) ListOverdue(ctx context.Context, asOf time.Time) iter.Seq2[model.Loan, error] {
	q, args, buildErr := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Expr("return_date is null")).
		Where(sq.Lt{"due_date": asOf.Format(time.DateOnly)}).
		OrderBy("due_date asc", "loan_id asc").
		ToSql()

	return func(yield func(model.Loan, error) bool) {
		if buildErr != nil {
			yield(model.Loan{}, buildErr)
			return
		}
		rows, err := r.db.QueryxContext(ctx, q, args...)
		if err != nil {
			yield(model.Loan{}, err)
			return
		}
		defer rows.Close() //nolint:errcheck

		for rows.Next() {
			var loan model.Loan
			if err := rows.StructScan(&loan); err != nil {
				yield(model.Loan{}, err)
				return
			}
			if !yield(loan, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Loan{}, err)
		}
	}
}
