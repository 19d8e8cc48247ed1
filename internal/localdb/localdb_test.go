package localdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/store"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettings(t *testing.T) {
	db := openTemp(t)

	v, err := db.GetSetting("theme")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetSetting("theme", "dark"))
	require.NoError(t, db.SetSetting("theme", "light"))
	v, err = db.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	require.NoError(t, db.DeleteSetting("theme"))
	v, err = db.GetSetting("theme")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLastProject(t *testing.T) {
	db := openTemp(t)

	require.NoError(t, db.SetLastProject("p1"))
	id, err := db.LastProject()
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	require.NoError(t, db.SetLastProject(""))
	id, err = db.LastProject()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestLocalUserIDIsStable(t *testing.T) {
	db := openTemp(t)

	first, err := db.LocalUserID()
	require.NoError(t, err)
	assert.Len(t, first, 36)

	again, err := db.LocalUserID()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/taskboard/state.db", p)
}

func TestPersistsStoreAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := Open(path)
	require.NoError(t, err)
	ws := store.NewWorkspaceStore()
	_, err = store.Persist(ws, "workspace", db)
	require.NoError(t, err)
	ws.Update(store.SetWorkspaces([]models.Workspace{{ID: "w1", Name: "Acme"}}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	restored := store.NewWorkspaceStore()
	_, err = store.Persist(restored, "workspace", db)
	require.NoError(t, err)
	require.NotNil(t, restored.Get().Current)
	assert.Equal(t, "w1", restored.Get().Current.ID)

	// state keys do not collide with plain settings
	v, err := db.GetSetting("workspace")
	require.NoError(t, err)
	assert.Empty(t, v)
}
