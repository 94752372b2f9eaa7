package integrity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/taghelpers/integrity"
)

func TestMemoryStore_zero_value(t *testing.T) {
	t.Parallel()

	var st integrity.MemoryStore

	_, ok, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(context.Background(), "k", "v"))

	got, ok, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	st := integrity.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), "a", "1"))
	require.NoError(t, st.Set(context.Background(), "b", "2"))

	require.NoError(t, st.Clear(context.Background()))

	assert.Zero(t, st.Len())

	_, ok, _ := st.Get(context.Background(), "a")
	assert.False(t, ok)
}

func TestTiered_far_hit_fills_near(t *testing.T) {
	t.Parallel()

	near := integrity.NewMemoryStore()
	far := integrity.NewMemoryStore()
	require.NoError(t, far.Set(context.Background(), "k", "v"))

	ti := integrity.Tiered{Near: near, Far: far}

	got, ok, err := ti.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	cached, ok, _ := near.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", cached)
}

func TestTiered_miss(t *testing.T) {
	t.Parallel()

	ti := integrity.Tiered{
		Near: integrity.NewMemoryStore(),
		Far:  integrity.NewMemoryStore(),
	}

	_, ok, err := ti.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTiered_near_hit_skips_far(t *testing.T) {
	t.Parallel()

	near := integrity.NewMemoryStore()
	require.NoError(t, near.Set(context.Background(), "k", "v"))

	far := &brokenStore{}
	ti := integrity.Tiered{Near: near, Far: far}

	got, ok, err := ti.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Zero(t, far.gets.Load())
}

func TestTiered_far_failure(t *testing.T) {
	t.Parallel()

	near := integrity.NewMemoryStore()
	ti := integrity.Tiered{Near: near, Far: &brokenStore{}}

	_, _, err := ti.Get(context.Background(), "k")
	require.Error(t, err)

	err = ti.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "far")

	// Near was still written.
	got, ok, _ := near.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

// clearFailStore is a MemoryStore whose Clear fails.
type clearFailStore struct {
	*integrity.MemoryStore
}

func (clearFailStore) Clear(context.Context) error {
	return errors.New("nope")
}

func TestTiered_Clear(t *testing.T) {
	t.Parallel()

	near := integrity.NewMemoryStore()
	far := integrity.NewMemoryStore()
	ti := integrity.Tiered{Near: near, Far: far}

	require.NoError(t, ti.Set(context.Background(), "k", "v"))
	require.NoError(t, ti.Clear(context.Background()))

	assert.Zero(t, near.Len())
	assert.Zero(t, far.Len())

	ti.Far = clearFailStore{integrity.NewMemoryStore()}
	assert.Error(t, ti.Clear(context.Background()))
}
