//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
	"github.com/hamrobooks/bookstore-api/internal/platform/migrations"
)

func setupUsersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("bookstore_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newTestUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := domain.NewUser(0, "Sita Sharma", email, "s3cret-pass", role)
	require.NoError(t, err)
	return user
}

func TestUsersRepository_SaveAndGetByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newTestUser(t, "Sita@Example.com", domain.RoleBuyer))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "sita@example.com", saved.Email)
	assert.Equal(t, domain.RoleBuyer, saved.Role)

	retrieved, err := repo.GetByEmail(ctx, "SITA@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, retrieved.ID)
	assert.Equal(t, saved.PasswordHash, retrieved.PasswordHash)

	byID, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sita Sharma", byID.Name)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUsersRepository_SaveUpsertsByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.Save(ctx, newTestUser(t, "sita@example.com", domain.RoleBuyer))
	require.NoError(t, err)

	renamed := newTestUser(t, "sita@example.com", domain.RoleAdmin)
	require.NoError(t, renamed.SetName("Sita S. Sharma"))

	second, err := repo.Save(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Sita S. Sharma", second.Name)
	assert.Equal(t, domain.RoleAdmin, second.Role)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUsersRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newTestUser(t, "ram@example.com", domain.RoleBuyer))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved.ID))

	_, err = repo.GetByID(ctx, saved.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	err = repo.Delete(ctx, saved.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db)
	ctx := context.Background()

	session := ports.Session{
		Token:     "tok-live",
		UserID:    1,
		Role:      domain.RoleBuyer,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, session))

	resolved, err := store.Get(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolved.UserID)
	assert.Equal(t, domain.RoleBuyer, resolved.Role)

	require.NoError(t, store.Delete(ctx, "tok-live"))

	_, err = store.Get(ctx, "tok-live")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ExpiryAndPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db)
	ctx := context.Background()

	expired := ports.Session{
		Token:     "tok-expired",
		UserID:    1,
		Role:      domain.RoleBuyer,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	live := ports.Session{
		Token:     "tok-live",
		UserID:    2,
		Role:      domain.RoleAdmin,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))

	// Expired tokens read as not found even before housekeeping runs.
	_, err := store.Get(ctx, "tok-expired")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	purged, err := store.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	resolved, err := store.Get(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resolved.UserID)
}
