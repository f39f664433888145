package unified2

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpoolRecordReader_Rotation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_spool_rotation")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 4)
	writeFixtureFile(t, tmpDir, "unified2.log.0000", event)
	writeFixtureFile(t, tmpDir, "unified2.log.0001", event)
	writeFixtureFile(t, tmpDir, "unified2.log.0002", event)

	sr := NewSpoolRecordReader(tmpDir, "unified2.log", nil)
	defer sr.Close()

	var rollovers [][2]string
	sr.SetOnRollover(func(closed, opened string) {
		rollovers = append(rollovers, [2]string{closed, opened})
	})

	count := 0
	for {
		rec, err := sr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 15, count)
	require.Len(t, rollovers, 2)
	assert.Equal(t, "unified2.log.0000", rollovers[0][0])
	assert.Equal(t, "unified2.log.0001", rollovers[0][1])
	assert.Equal(t, "unified2.log.0001", rollovers[1][0])
	assert.Equal(t, "unified2.log.0002", rollovers[1][1])
}

func TestSpoolRecordReader_ParksOnLastFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_spool_park")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 4)
	path := writeFixtureFile(t, tmpDir, "unified2.log.0000", event)

	sr := NewSpoolRecordReader(tmpDir, "unified2.log", nil)
	defer sr.Close()

	count := 0
	for {
		rec, err := sr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)

	rec, err := sr.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	_, err = f.Write(event)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	count = 0
	for {
		rec, err := sr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
}

func TestSpoolRecordReader_OpenAtBookmark(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_spool_bookmark")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 4)
	writeFixtureFile(t, tmpDir, "unified2.log.0000", event)
	writeFixtureFile(t, tmpDir, "unified2.log.0001", event)

	sr := NewSpoolRecordReader(tmpDir, "unified2.log", nil, WithBookmark("unified2.log.0001", 0))
	defer sr.Close()

	count := 0
	for {
		rec, err := sr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
	name, _ := sr.Tell()
	assert.Equal(t, "unified2.log.0001", name)
}

func TestSpoolRecordReader_BookmarkDroppedWhenFileGone(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_spool_bookmark_gone")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	event := oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 4)
	writeFixtureFile(t, tmpDir, "unified2.log.0002", event)

	sr := NewSpoolRecordReader(tmpDir, "unified2.log", nil, WithBookmark("unified2.log.0000", 1234))
	defer sr.Close()

	count := 0
	for {
		rec, err := sr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
	name, _ := sr.Tell()
	assert.Equal(t, "unified2.log.0002", name)
}

func TestSpoolRecordReader_ListCandidatesFiltersPrefix(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "unified2_spool_filter")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	writeFixtureFile(t, tmpDir, "unified2.log.0000", []byte{})
	writeFixtureFile(t, tmpDir, "other.log.0000", []byte{})

	sr := NewSpoolRecordReader(tmpDir, "unified2.log", nil)
	names, err := sr.listCandidates()
	require.NoError(t, err)
	assert.Equal(t, []string{"unified2.log.0000"}, names)
}
