package unified2

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestFileRecordReader_MultiFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_filereader")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 16)
	p1 := writeFixtureFile(t, tmpDir, "a.log", event)
	p2 := writeFixtureFile(t, tmpDir, "b.log", event)

	fr, err := NewFileRecordReader([]string{p1, p2}, nil)
	require.NoError(t, err)
	defer fr.Close()

	count := 0
	for {
		rec, err := fr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 34, count)
}

func TestFileRecordReader_SinglePathTails(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_filereader_tail")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "only.log")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	fr, err := NewFileRecordReader([]string{path}, nil)
	require.NoError(t, err)
	defer fr.Close()

	rec, err := fr.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 2)
	f, err := os.OpenFile(path, os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write(event)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	count := 0
	for {
		rec, err := fr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}
