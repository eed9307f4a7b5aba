package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func sampleSession() Session {
	return Session{
		Token: "tok-123",
		User: User{
			ID:        "u-1",
			Role:      RoleFamily,
			FirstName: "Asha",
			LastName:  "Rao",
			LinkedPatients: []LinkedPatient{
				{ID: "rec-1", PatientName: "Mira Rao", Relationship: "mother"},
				{PatientID: "p-2", PatientName: "Dev Rao"},
			},
		},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, sampleSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// clearing twice is not an error
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()
	store := NewRedisStore(client, "test")

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, sampleSession()))
	assert.True(t, mr.Exists("test:accessToken"))
	assert.True(t, mr.Exists("test:user"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("test:accessToken"))
	assert.False(t, mr.Exists("test:user"))
}

func TestRedisStore_PartialStateIsNoSession(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("carely:accessToken", "orphan"))

	_, err := NewRedisStore(client, "").Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, sampleSession()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got.Token)
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
