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

var userColumns = []string{"user_id", "username", "password_hash", "role", "created_at", "phone", "permissions"}

func (r *repository) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleReader
	}
	q, args, err := qb.Insert(usersTableName).
		Columns("username", "password_hash", "role", "phone", "permissions").
		Values(req.Username, req.PasswordHash, role, req.Phone, req.Permissions).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		r.log.Error("CreateUser", zap.String("q", q), zap.Any("args", args))
		return model.User{}, wrapPgErr(err)
	}
	return user, nil
}

func (r *repository) GetUser(ctx context.Context, userID int) (model.User, error) {
	q, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) ListUsers(ctx context.Context) ([]model.User, error) {
	q, args, err := qb.Select(userColumns...).
		From(usersTableName).
		OrderBy("user_id asc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdateUserRole(ctx context.Context, userID int, role model.Role) error {
	return r.updateUser(ctx, userID, "role", string(role))
}

func (r *repository) UpdateUserPermissions(ctx context.Context, userID int, permissions string) error {
	return r.updateUser(ctx, userID, "permissions", permissions)
}

func (r *repository) updateUser(ctx context.Context, userID int, column string, value string) error {
	q, args, err := qb.Update(usersTableName).
		Set(column, value).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
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

// DeleteUser removes the user and, via the schema's cascade policy,
// every loan referencing them.
func (r *repository) DeleteUser(ctx context.Context, userID int) error {
	res, err := r.db.ExecContext(ctx, `delete from users where user_id = $1`, userID)
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
