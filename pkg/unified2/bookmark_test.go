package unified2

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmark_RoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_bookmark")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	bm := NewBookmark(filepath.Join(tmpDir, "bookmark"))

	filename, offset, err := bm.Get()
	require.NoError(t, err)
	assert.Equal(t, "", filename)
	assert.Equal(t, int64(0), offset)

	require.NoError(t, bm.Set("unified2.log.0000", 38950))

	filename, offset, err = bm.Get()
	require.NoError(t, err)
	assert.Equal(t, "unified2.log.0000", filename)
	assert.Equal(t, int64(38950), offset)
}

func TestBookmark_OverwritesAtomically(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_bookmark_overwrite")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	bm := NewBookmark(filepath.Join(tmpDir, "bookmark"))
	require.NoError(t, bm.Set("unified2.log.0000", 100))
	require.NoError(t, bm.Set("unified2.log.0001", 68))

	filename, offset, err := bm.Get()
	require.NoError(t, err)
	assert.Equal(t, "unified2.log.0001", filename)
	assert.Equal(t, int64(68), offset)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // no leftover temp files
}

func TestBookmark_MalformedFileReturnsError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_bookmark_malformed")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "bookmark")
	require.NoError(t, os.WriteFile(path, []byte("onlyoneline\n"), 0600))

	bm := NewBookmark(path)
	_, _, err = bm.Get()
	assert.Error(t, err)
}
