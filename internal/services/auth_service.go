package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

var ErrBadCreds = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)

const passwordRules = "password must be 8-72 characters with upper, lower, digit and symbol"

type AuthService struct {
	Users *repos.UserRepo
	TTL   time.Duration
	Cost  int
}

func NewAuthService(users *repos.UserRepo, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, TTL: ttl, Cost: 12}
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*domain.User, error) {
	return s.create(ctx, email, name, password, domain.RoleCustomer)
}

func (s *AuthService) create(ctx context.Context, email, name, password, role string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, domain.Invalid("invalid email")
	}
	name, ok = validate.Name(name)
	if !ok {
		return nil, domain.Invalid("name is required (max 50 characters)")
	}
	if !validate.Password(password) {
		return nil, domain.Invalid(passwordRules)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		Name:      name,
		Hash:      string(hash),
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, ErrBadCreds
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return Session{}, ErrBadCreds
	}
	now := time.Now()
	if err := s.Users.PruneSessions(ctx, u.ID, now); err != nil {
		return Session{}, err
	}
	sess := Session{Token: uuid.NewString(), ExpiresAt: now.Add(s.TTL), User: u}
	if err := s.Users.CreateSession(ctx, sess.Token, u.ID, now, sess.ExpiresAt); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Users.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.Users.SessionUser(ctx, token, time.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session expired or unknown: %w", domain.ErrUnauthorized)
	}
	return u, err
}

// EnsureAdmin creates the admin account, or promotes an existing user with
// that email.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		if !u.IsAdmin() {
			if err := s.Users.SetRole(ctx, u.ID, domain.RoleAdmin); err != nil {
				return nil, err
			}
			u.Role = domain.RoleAdmin
		}
		return u, nil
	case errors.Is(err, domain.ErrNotFound):
		return s.create(ctx, email, "Administrator", password, domain.RoleAdmin)
	default:
		return nil, err
	}
}
