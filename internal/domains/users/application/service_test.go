package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/memory"
	"github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
)

func newTestService(t *testing.T) (*Service, *memory.SessionStore) {
	t.Helper()
	sessions := memory.NewSessionStore()
	return NewService(memory.NewRepository(), sessions, time.Hour), sessions
}

func signup(t *testing.T, svc *Service, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := domain.NewUser(0, "Asha Sharma", email, "s3cret!", role)
	require.NoError(t, err)
	created, err := svc.Signup(context.Background(), user)
	require.NoError(t, err)
	return created
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	created := signup(t, svc, "asha@example.com", domain.RoleBuyer)
	require.NotZero(t, created.ID)
	require.Equal(t, domain.RoleBuyer, created.Role)

	token, user, err := svc.Login(context.Background(), "asha@example.com", "s3cret!")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, created.ID, user.ID)

	resolved, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, created.ID, resolved.ID)
	require.Equal(t, domain.RoleBuyer, resolved.Role)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	signup(t, svc, "asha@example.com", domain.RoleBuyer)

	dup, err := domain.NewUser(0, "Someone Else", "Asha@Example.com", "other-pass", domain.RoleBuyer)
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), dup)
	require.ErrorIs(t, err, ports.ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	_, _ = newTestService(t)

	_, err := domain.NewUser(0, "Asha", "not-an-email", "s3cret!", domain.RoleBuyer)
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = domain.NewUser(0, "Asha", "asha@example.com", "abc", domain.RoleBuyer)
	require.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = domain.NewUser(0, "Asha", "asha@example.com", "s3cret!", domain.Role("root"))
	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	signup(t, svc, "asha@example.com", domain.RoleBuyer)

	_, _, err := svc.Login(context.Background(), "asha@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrAuthentication)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret!")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	signup(t, svc, "asha@example.com", domain.RoleBuyer)

	token, _, err := svc.Login(context.Background(), "asha@example.com", "s3cret!")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, sessions := newTestService(t)
	created := signup(t, svc, "asha@example.com", domain.RoleBuyer)

	require.NoError(t, sessions.Save(context.Background(), ports.Session{
		Token:     "stale-token",
		UserID:    created.ID,
		Role:      created.Role,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))

	_, err := svc.Authenticate(context.Background(), "stale-token")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestUpdateKeepsPasswordWhenOmitted(t *testing.T) {
	svc, _ := newTestService(t)
	created := signup(t, svc, "asha@example.com", domain.RoleBuyer)

	updated := &domain.User{Name: "Asha S.", Email: "asha@example.com", Role: domain.RoleBuyer}
	saved, err := svc.Update(context.Background(), created.ID, updated)
	require.NoError(t, err)
	require.Equal(t, "Asha S.", saved.Name)
	require.True(t, saved.CheckPassword("s3cret!"))
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	svc, _ := newTestService(t)
	signup(t, svc, "asha@example.com", domain.RoleBuyer)
	other := signup(t, svc, "bina@example.com", domain.RoleBuyer)

	updated := &domain.User{Name: "Bina", Email: "asha@example.com", Role: domain.RoleBuyer}
	_, err := svc.Update(context.Background(), other.ID, updated)
	require.ErrorIs(t, err, ports.ErrEmailTaken)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	created := signup(t, svc, "asha@example.com", domain.RoleBuyer)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ports.ErrNotFound)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}
