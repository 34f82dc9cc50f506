package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndGetBatch(t *testing.T) {
	store := openTestStore(t)

	for _, op := range []string{"attach", "detach", "clear_task"} {
		require.NoError(t, store.Enqueue(Item{
			Op:   op,
			Data: json.RawMessage(`{"taskId":"t1"}`),
		}))
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	items, err := store.GetBatch(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// GetBatch is a peek, not a pop.
	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestPriorityOrdering(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{Op: "low", Priority: 5}))
	require.NoError(t, store.Enqueue(Item{Op: "high", Priority: 1}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "high", items[0].Op)
	assert.Equal(t, "low", items[1].Op)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{Op: "attach"}))
	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, store.Remove(items[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeueBumpsTimestamp(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{Op: "attach", Timestamp: time.Now().Add(-time.Hour)}))
	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	item.Retries++
	require.NoError(t, store.Remove(items[0]))
	require.NoError(t, store.Requeue(item))

	after, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, 1, after[0].Retries)
	assert.True(t, after[0].Timestamp.After(items[0].Timestamp))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestCleanupDropsExpiredItems(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{Op: "stale", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{Op: "fresh"}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].Op)
}

func TestClosedStoreErrors(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(Item{Op: "attach"}))

	_, err := store.GetBatch(1)
	assert.Error(t, err)
}
