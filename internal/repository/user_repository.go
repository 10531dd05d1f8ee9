package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/account-service/internal/model"
)

// ErrUserNotFound is returned when no user has the requested id.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidRole is returned when a user is written with an unknown role.
var ErrInvalidRole = errors.New("invalid role")

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateMany inserts users in a single transaction, assigning each a new id.
// Either all rows are written or none are.
func (r *UserRepo) CreateMany(ctx context.Context, users []*model.User) (err error) {
	for _, u := range users {
		if !model.ValidRole(u.Role) {
			return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
		}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, u := range users {
		id := uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO users (id, name, role, password_hash) VALUES (?,?,?,?)",
			id, u.Name, u.Role, u.PasswordHash); err != nil {
			return err
		}
		u.ID = id
	}
	return tx.Commit()
}

// GetByID fetches a user by id, returning ErrUserNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,role,password_hash,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,role,password_hash,created_at FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.User{}
	for rows.Next() {
		u := new(model.User)
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
