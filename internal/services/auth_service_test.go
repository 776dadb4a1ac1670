package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/services"
)

const goodPassword = "Str0ng!pass"

func TestAuth_SignupLoginLogout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	u, err := e.auth.Signup(ctx, "Ann@Example.com", "Ann", goodPassword)
	require.NoError(t, err)
	require.Equal(t, domain.RoleCustomer, u.Role)
	require.Equal(t, "ann@example.com", u.Email)

	_, err = e.auth.Signup(ctx, "ann@example.com", "Other", goodPassword)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = e.auth.Login(ctx, "ann@example.com", "wrong")
	require.ErrorIs(t, err, services.ErrBadCreds)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = e.auth.Login(ctx, "nobody@example.com", goodPassword)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	sess, err := e.auth.Login(ctx, "ANN@example.com", goodPassword)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.True(t, sess.ExpiresAt.After(time.Now()))

	who, err := e.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, who.ID)

	require.NoError(t, e.auth.Logout(ctx, sess.Token))
	_, err = e.auth.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.auth.Authenticate(ctx, "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_SignupValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	cases := map[string][3]string{
		"bad email":     {"not-an-email", "Ann", goodPassword},
		"missing name":  {"a@example.com", " ", goodPassword},
		"weak password": {"a@example.com", "Ann", "password"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.auth.Signup(ctx, in[0], in[1], in[2])
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAuth_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.auth.TTL = -time.Second

	_, err := e.auth.Signup(ctx, "bob@example.com", "Bob", goodPassword)
	require.NoError(t, err)
	sess, err := e.auth.Login(ctx, "bob@example.com", goodPassword)
	require.NoError(t, err)

	_, err = e.auth.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	admin, err := e.auth.EnsureAdmin(ctx, "root@example.com", goodPassword)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin())

	again, err := e.auth.EnsureAdmin(ctx, "root@example.com", goodPassword)
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)

	cust, err := e.auth.Signup(ctx, "cust@example.com", "Cust", goodPassword)
	require.NoError(t, err)
	promoted, err := e.auth.EnsureAdmin(ctx, "cust@example.com", "ignored")
	require.NoError(t, err)
	require.Equal(t, cust.ID, promoted.ID)
	require.True(t, promoted.IsAdmin())

	stored, err := e.store.Users.ByID(ctx, cust.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, stored.Role)
}
