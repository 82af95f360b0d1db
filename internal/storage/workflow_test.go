package storage

import (
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
)

// TestFullWorkflow exercises the complete engram lifecycle:
// init → create → resolve by prefix → read → list → delete → read (not found)
func TestFullWorkflow(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	store, err := Open(dir)
	require.NoError(t, err)

	// 1. Init
	require.NoError(t, store.Init(""))
	require.True(t, store.IsInitialized())

	// 2. Create
	id := engram.NewID()
	rec := testRecord(id, time.Now().UTC())
	created, err := store.Create(rec)
	require.NoError(t, err)
	require.Equal(t, id, created)

	// 3. Resolve by short prefix
	resolved, err := store.Resolve(id.Short())
	require.NoError(t, err)
	require.Equal(t, id, resolved)

	// 4. Read full record
	loaded, err := store.Read(id.String())
	require.NoError(t, err)
	require.Equal(t, rec.Manifest.ID, loaded.Manifest.ID)
	require.Equal(t, rec.Intent.OriginalRequest, loaded.Intent.OriginalRequest)
	require.Len(t, loaded.Transcript, len(rec.Transcript))

	// 5. Manifest fast path matches the full read
	m, err := store.ReadManifest(id.Short())
	require.NoError(t, err)
	require.Equal(t, loaded.Manifest.ID, m.ID)
	require.Equal(t, loaded.Manifest.TokenUsage, m.TokenUsage)

	// 6. List includes the record
	manifests, err := store.List(ListOptions{})
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	require.Equal(t, id, manifests[0].ID)

	// 7. Delete
	require.NoError(t, store.Delete(id.Short()))

	// 8. Read - verify gone
	_, err = store.Read(id.String())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// Listing is empty again
	manifests, err = store.List(ListOptions{})
	require.NoError(t, err)
	require.Empty(t, manifests)
}
