package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	sq "github.com/Masterminds/squirrel"

	"github.com/openshelf/loan-ledger/internal/errs"
	"github.com/openshelf/loan-ledger/internal/model"
)

var bookColumns = []string{"book_id", "title", "author", "isbn", "quantity", "available_quantity", "added_at"}

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "quantity", "available_quantity").
		Values(req.Title, req.Author, req.ISBN, req.Quantity, req.Quantity).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, wrapPgErr(err)
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"book_id": bookID}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, search model.BookSearch) (model.ListBooks, error) {
	b := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("title asc")
	if search.Title != "" {
		b = b.Where(sq.ILike{"title": "%" + search.Title + "%"})
	}
	if search.Author != "" {
		b = b.Where(sq.ILike{"author": "%" + search.Author + "%"})
	}
	if search.Page != 0 && search.Size != 0 {
		b = b.Limit(uint64(search.Size)).Offset(uint64((search.Page - 1) * search.Size))
	}

	q, args, err := b.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          search.Page,
			PageSize:      search.Size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

// UpdateBook patches book fields. A quantity change shifts
// available_quantity by the same delta, floored at zero, so open
// loans keep counting against the new total.
func (r *repository) UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) (model.Book, error) {
	if req.Title == nil && req.Author == nil && req.ISBN == nil && req.Quantity == nil {
		return r.GetBook(ctx, bookID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var cur model.Book
	err = tx.QueryRowContext(ctx,
		`select quantity, available_quantity from books where book_id = $1 for update`, bookID).
		Scan(&cur.Quantity, &cur.AvailableQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}

	b := qb.Update(booksTableName).Where(sq.Eq{"book_id": bookID})
	if req.Title != nil {
		b = b.Set("title", *req.Title)
	}
	if req.Author != nil {
		b = b.Set("author", *req.Author)
	}
	if req.ISBN != nil {
		b = b.Set("isbn", *req.ISBN)
	}
	if req.Quantity != nil {
		delta := *req.Quantity - cur.Quantity
		available := cur.AvailableQuantity + delta
		if available < 0 {
			available = 0
		}
		b = b.Set("quantity", *req.Quantity).Set("available_quantity", available)
	}

	q, args, err := b.Suffix("returning *").ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := tx.GetContext(ctx, &book, q, args...); err != nil {
		r.log.Error("UpdateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, wrapPgErr(err)
	}

	return book, tx.Commit()
}

// DeleteBook removes the book and, via the schema's cascade policy,
// every loan referencing it.
func (r *repository) DeleteBook(ctx context.Context, bookID int) error {
	res, err := r.db.ExecContext(ctx, `delete from books where book_id = $1`, bookID)
	if err != nil {
		return wrapPgErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) GetStats(ctx context.Context) (model.Stats, error) {
	const q = `
	select
	    (select count(*) from books)                                as total_titles,
	    (select coalesce(sum(quantity), 0) from books)              as total_copies,
	    (select count(*) from loans where return_date is null)      as open_loans,
	    (select count(*) from users)                                as total_users
`
	var st model.Stats
	if err := r.db.GetContext(ctx, &st, q); err != nil {
		return model.Stats{}, err
	}
	return st, nil
}
