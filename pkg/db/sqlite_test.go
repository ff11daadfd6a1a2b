package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidatlas/vidatlas/pkg/model"
)

func TestNewSQLite(t *testing.T) {
	dir := t.TempDir()

	db, err := NewSQLite(&Config{Dir: dir})
	require.NoError(t, err)

	err = db.Close()
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "vidatlas.db"))
	assert.NoError(t, err)
}

func TestSQLite_Reopen(t *testing.T) {
	dir := t.TempDir()

	db, err := NewSQLite(&Config{Dir: dir})
	require.NoError(t, err)

	video := getVideo()
	require.NoError(t, db.Upsert(testCtx, []*model.Video{video}))
	require.NoError(t, db.Close())

	db, err = NewSQLite(&Config{Dir: dir})
	require.NoError(t, err)
	defer db.Close()

	videos, err := db.All(testCtx)
	assert.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, video, videos[0])
}
