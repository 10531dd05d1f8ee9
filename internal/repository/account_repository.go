// Package repository contains data access logic separated from HTTP handlers.
// This file holds the account queries.  Accounts carry no relationships, so
// every operation is a single statement against the `accounts` table.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/account-service/internal/model"
)

// ErrAccountNotFound is returned when no account has the requested id.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepo encapsulates all database queries related to accounts.
type AccountRepo struct {
	db *sql.DB
}

// NewAccountRepo constructs an AccountRepo with the provided DB handle.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts a new account under a freshly generated id and reads the
// row back so callers receive the stored timestamps.
func (r *AccountRepo) Create(ctx context.Context, name string) (*model.Account, error) {
	a := &model.Account{ID: uuid.NewString(), Name: name}
	if _, err := r.db.ExecContext(ctx, "INSERT INTO accounts (id, name) VALUES (?, ?)", a.ID, a.Name); err != nil {
		return nil, err
	}

	const qSelect = "SELECT created_at, updated_at FROM accounts WHERE id = ?"
	if err := r.db.QueryRowContext(ctx, qSelect, a.ID).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every account ordered by creation time.
func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	const q = "SELECT id, name, created_at, updated_at FROM accounts ORDER BY created_at, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Account{}
	for rows.Next() {
		a := new(model.Account)
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches an account by id.  It returns ErrAccountNotFound if no row
// is found.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	const q = "SELECT id, name, created_at, updated_at FROM accounts WHERE id = ?"
	var a model.Account
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateName renames the account.  found is false when no row matched; that
// is not treated as an error.
func (r *AccountRepo) UpdateName(ctx context.Context, id, name string) (found bool, err error) {
	const q = "UPDATE accounts SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, name, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the account.  found is false when no row matched.
func (r *AccountRepo) Delete(ctx context.Context, id string) (found bool, err error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
