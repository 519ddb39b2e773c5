package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *boltStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "local.kv"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.(*boltStore)
}

func TestBoltStore_GetMissingKey(t *testing.T) {
	s := openTemp(t)
	v, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBoltStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Put(ctx, "local:products", []byte(`[]`)))
	v, err := s.Get(ctx, "local:products")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, s.Delete(ctx, "local:products"))
	v, err = s.Get(ctx, "local:products")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBoltStore_DeletePrefixKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	for _, k := range []string{"local:a", "local:b", "local:blob:logo", "queue:pending_deletes", "session:tenant:u1"} {
		require.NoError(t, s.Put(ctx, k, []byte("x")))
	}

	n, err := s.DeletePrefix(ctx, "local:")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, _ := s.Get(ctx, "queue:pending_deletes")
	assert.NotNil(t, v)
	v, _ = s.Get(ctx, "session:tenant:u1")
	assert.NotNil(t, v)
	v, _ = s.Get(ctx, "local:blob:logo")
	assert.Nil(t, v)
}

func TestBoltStore_Update(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur)
		return []byte("1"), nil
	}))
	require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		return append(cur, '2'), nil
	}))
	v, _ := s.Get(ctx, "k")
	assert.Equal(t, "12", string(v))

	boom := errors.New("boom")
	err := s.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("lost"), boom })
	assert.ErrorIs(t, err, boom)
	v, _ = s.Get(ctx, "k")
	assert.Equal(t, "12", string(v))

	require.NoError(t, s.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, nil }))
	v, _ = s.Get(ctx, "k")
	assert.Nil(t, v)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.kv")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "queue:pending_deletes", []byte(`[{"id":"x"}]`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, "queue:pending_deletes")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, string(v))
}
