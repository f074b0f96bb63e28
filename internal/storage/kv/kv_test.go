package kv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type snapshot struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

func TestStoreRoundtrip(t *testing.T) {
	store := openTestStore(t)

	in := snapshot{Names: []string{"a", "b"}, Count: 2}
	require.NoError(t, store.Save("things", in))

	var out snapshot
	found, err := store.Load("things", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestStoreOverwrite(t *testing.T) {
	// a save replaces the whole namespace snapshot
	store := openTestStore(t)

	require.NoError(t, store.Save("things", snapshot{Count: 1}))
	require.NoError(t, store.Save("things", snapshot{Count: 2}))

	var out snapshot
	found, err := store.Load("things", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, out.Count)
}

func TestStoreMissingNamespace(t *testing.T) {
	store := openTestStore(t)

	var out snapshot
	found, err := store.Load("nope", &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, snapshot{}, out)
}

func TestStoreCorruptRecord(t *testing.T) {
	store := openTestStore(t)

	corrupt := record{
		Namespace: "things",
		Value:     []byte("{not json"),
		UpdatedAt: time.Now().UnixMilli(),
	}
	require.NoError(t, store.db.Create(&corrupt).Error)

	var out snapshot
	found, err := store.Load("things", &out)
	assert.NoError(t, err)
	assert.False(t, found)

	// the corrupt record is dropped, so a later save starts clean
	var count int64
	require.NoError(t, store.db.Model(&record{}).Where("namespace = ?", "things").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("things", snapshot{Count: 1}))
	require.NoError(t, store.Delete("things"))

	var out snapshot
	found, err := store.Load("things", &out)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("things", snapshot{Count: 7}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	var out snapshot
	found, err := reopened.Load("things", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, out.Count)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
