package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eleitores/internal/core"
)

// ---- Helpers ----

func newTestSession(t *testing.T) *core.ImportSession {
	t.Helper()
	file, err := core.Decode([]byte("Nome completo;Fone;CPF\nMaria Silva;11999990000;12345678901\n"), "contatos.csv")
	require.NoError(t, err)
	return core.NewImportSession("contatos.csv", "operador-1", file)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

// storeContract runs the behavior shared by every backend.
func storeContract(t *testing.T, store core.SessionStore) {
	ctx := context.Background()

	t.Run("load unknown id", func(t *testing.T) {
		_, err := store.Load(ctx, "does-not-exist")
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		sess := newTestSession(t)
		require.NoError(t, store.Save(ctx, sess))

		got, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, core.PhaseMapping, got.Phase)
		assert.Equal(t, sess.Headers(), got.Headers())
		assert.Equal(t, sess.Rows, got.Rows)
		assert.Equal(t, core.FieldTelefone, got.Mapping["Fone"])
	})

	t.Run("loaded session is a copy", func(t *testing.T) {
		sess := newTestSession(t)
		require.NoError(t, store.Save(ctx, sess))

		got, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		got.Mapping["Fone"] = core.FieldIgnored

		again, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, core.FieldTelefone, again.Mapping["Fone"])
	})

	t.Run("records survive with typed fields", func(t *testing.T) {
		sess := newTestSession(t)
		require.NoError(t, sess.BuildRecords())
		require.NoError(t, store.Save(ctx, sess))

		got, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, got.Records, 1)
		assert.Equal(t, core.PhasePreview, got.Phase)
		assert.Equal(t, sess.Records[0].Fields, got.Records[0].Fields)
		assert.True(t, got.Records[0].Fields.DataNascimento.Equal(core.DefaultBirthDate))
	})

	t.Run("delete", func(t *testing.T) {
		sess := newTestSession(t)
		require.NoError(t, store.Save(ctx, sess))
		require.NoError(t, store.Delete(ctx, sess.ID))

		_, err := store.Load(ctx, sess.ID)
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, sess.ID))
	})
}

// ---- MemoryStore Tests ----

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	sess := newTestSession(t)
	require.NoError(t, store.Save(ctx, sess))

	now = now.Add(29 * time.Minute)
	_, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_SaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	sess := newTestSession(t)
	require.NoError(t, store.Save(ctx, sess))

	now = now.Add(8 * time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	now = now.Add(8 * time.Minute)
	_, err := store.Load(ctx, sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, store.Sweep())
}

func TestMemoryStore_RunJanitorStops(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.RunJanitor(ctx, 10*time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

// ---- RedisStore Tests ----

func TestRedisStore_Contract(t *testing.T) {
	_, client := setupTestRedis(t)
	storeContract(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 30*time.Minute)

	sess := newTestSession(t)
	require.NoError(t, store.Save(ctx, sess))
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKey(sess.ID)))

	mr.FastForward(31 * time.Minute)
	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)
	mr.Close()

	_, err = store.Load(context.Background(), "any")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrSessionNotFound)
}
