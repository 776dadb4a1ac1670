package repos

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
)

type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Hash:      r.Hash,
		Role:      r.Role,
		CreatedAt: parseStamp(r.CreatedAt),
	}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, email, name, password_hash, role, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.Hash, u.Role, stamp(u.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	return storageErr(err)
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u userRow
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, name, password_hash, role, created_at
		FROM users WHERE LOWER(email) = LOWER(?)
	`, email)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u.toDomain(), nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u userRow
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, name, password_hash, role, created_at
		FROM users WHERE id = ?
	`, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u.toDomain(), nil
}

// SetRole updates a user's role; used when promoting the seeded admin.
func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	return affectedOne(res, err, "user "+id)
}

func (r *UserRepo) CreateSession(ctx context.Context, token, userID string, at, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(token, user_id, created_at, expires_at)
		VALUES(?, ?, ?, ?)
	`, token, userID, stamp(at), stamp(expires))
	return storageErr(err)
}

// SessionUser resolves a token that has not expired at the given time.
func (r *UserRepo) SessionUser(ctx context.Context, token string, at time.Time) (*domain.User, error) {
	var u userRow
	err := r.db.GetContext(ctx, &u, `
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, stamp(at))
	if err != nil {
		return nil, notFoundOr(err, "session")
	}
	return u.toDomain(), nil
}

func (r *UserRepo) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return storageErr(err)
}

// PruneSessions drops a user's expired sessions.
func (r *UserRepo) PruneSessions(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? AND expires_at <= ?`, userID, stamp(at))
	return storageErr(err)
}
