package thumbcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "thumbs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_GetPutDelete(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "out/a.png@1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "out/a.png@1", []byte("one")))
	require.NoError(t, c.Put(ctx, "out/a.png@1", []byte("two")))
	data, ok, err := c.Get(ctx, "out/a.png@1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", string(data))

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Delete(ctx, "out/a.png@1"))
	_, ok, _ = c.Get(ctx, "out/a.png@1")
	assert.False(t, ok)
}

func TestCache_PruneDropsOldEntries(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	base := time.UnixMilli(1_000_000)

	c.now = func() time.Time { return base }
	require.NoError(t, c.Put(ctx, "old", []byte("x")))
	c.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, c.Put(ctx, "new", []byte("y")))

	dropped, err := c.Prune(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), dropped)

	_, ok, _ := c.Get(ctx, "old")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "new")
	assert.True(t, ok)
}
