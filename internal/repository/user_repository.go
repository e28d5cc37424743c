package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	FirstByRole(ctx context.Context, role domain.Role) (*domain.User, error)
	RandomByRole(ctx context.Context, role domain.Role) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository returns a sqlx-backed implementation.
func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, role, created_at)
        VALUES (?, ?, ?, ?)
        RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	err := sqlx.GetContext(ctx, r.db, &user.ID, r.db.Rebind(query),
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt.UTC(),
	)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at
        FROM users WHERE id=?`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at
        FROM users WHERE username=?`
	return r.fetchSingle(ctx, query, username)
}

func (r *userRepository) FirstByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at
        FROM users WHERE role=? ORDER BY id ASC LIMIT 1`
	return r.fetchSingle(ctx, query, role)
}

func (r *userRepository) RandomByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at
        FROM users WHERE role=? ORDER BY RANDOM() LIMIT 1`
	return r.fetchSingle(ctx, query, role)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, username, password_hash, role, created_at
        FROM users WHERE role=? ORDER BY id ASC`
	users := []domain.User{}
	if err := sqlx.SelectContext(ctx, r.db, &users, r.db.Rebind(query), role); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := sqlx.GetContext(ctx, r.db, &user, r.db.Rebind(query), arg); err != nil {
		return nil, err
	}
	return &user, nil
}
