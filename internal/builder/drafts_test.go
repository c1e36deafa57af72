package builder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/dto"
)

func TestDraftStoreLifecycle(t *testing.T) {
	store := NewDraftStore(NewMemoryStore())
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	a, err := store.Save("", "A", dto.ExamContent{ExamTitle: "A"})
	require.NoError(t, err)
	b, err := store.Save("", "", dto.ExamContent{ExamTitle: "B title"})
	require.NoError(t, err)
	assert.Equal(t, "B title", b.Name)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = store.Save(a.ID, "A2", dto.ExamContent{ExamTitle: "A"})
	require.NoError(t, err)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Name)
	assert.True(t, list[0].UpdatedAt.After(list[0].CreatedAt))

	require.NoError(t, store.Delete(b.ID))
	assert.ErrorIs(t, store.Delete(b.ID), ErrDraftNotFound)

	require.NoError(t, store.Clear())
	list, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDraftStoreKeepsCorruptCollection(t *testing.T) {
	mem := NewMemoryStore()
	require.NoError(t, mem.Set(DraftsKey, []byte("{not json")))
	store := NewDraftStore(mem)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Save("", "Fresh", dto.ExamContent{ExamTitle: "Fresh"})
	require.NoError(t, err)

	backup, err := mem.Get(CorruptDraftsKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fresh", list[0].Name)
}

type backupRefusingStore struct {
	LocalStore
}

func (s backupRefusingStore) Set(key string, value []byte) error {
	if key == CorruptDraftsKey {
		return errors.New("disk full")
	}
	return s.LocalStore.Set(key, value)
}

func TestDraftStoreRefusesToOverwriteUnbackedCorruption(t *testing.T) {
	mem := NewMemoryStore()
	require.NoError(t, mem.Set(DraftsKey, []byte("{not json")))
	store := NewDraftStore(backupRefusingStore{mem})

	_, err := store.Save("", "Fresh", dto.ExamContent{ExamTitle: "Fresh"})
	require.Error(t, err)

	raw, err := mem.Get(DraftsKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "examctl.db")
	store, err := OpenSQLiteStore(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set("k", []byte("one")))
	require.NoError(t, store.Set("k", []byte("two")))
	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	drafts := NewDraftStore(store)
	_, err = drafts.Save("", "persisted", dto.ExamContent{ExamTitle: "T"})
	require.NoError(t, err)
	list, err := drafts.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete("k"))
	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
