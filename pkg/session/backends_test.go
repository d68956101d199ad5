package session

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/nexusforge/console/pkg/common/database"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx))
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	want := Session{Token: "tok", TokenType: "bearer", User: models.User{ID: 5, Name: "Grace", Email: "grace@example.com"}}
	require.NoError(t, store.Save(ctx, want))
	want.Token = "tok-2"
	require.NoError(t, store.Save(ctx, want), "saving again overwrites")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CONSOLE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CONSOLE_TEST_REDIS_ADDR not set")
	}
	client, err := database.OpenRedisAddr(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, "test-"+uuid.NewString()))
}

func TestDBStore(t *testing.T) {
	dsn := os.Getenv("CONSOLE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CONSOLE_TEST_POSTGRES_DSN not set")
	}
	db, err := database.OpenPostgresDSN(dsn)
	require.NoError(t, err)
	defer database.ClosePostgres(db)

	store := NewDBStore(db, "test-"+uuid.NewString())
	require.NoError(t, store.AutoMigrate())
	exerciseStore(t, store)
}
