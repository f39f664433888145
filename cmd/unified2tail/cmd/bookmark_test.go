package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborwatch/unified2spool/internal/config"
	"github.com/arborwatch/unified2spool/pkg/unified2"
)

func commandWithConfig(cfg *config.Config, out *bytes.Buffer) *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(context.WithValue(context.Background(), configKey, cfg))
	c.SetOut(out)
	return c
}

func TestBookmarkShow_NoBookmark(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Spool.BookmarkPath = filepath.Join(dir, "missing.bookmark")

	bookmark := unified2.NewBookmark(cfg.Spool.BookmarkPath)
	filename, offset, err := bookmark.Get()
	require.NoError(t, err)
	assert.Empty(t, filename)
	assert.Zero(t, offset)

	var out bytes.Buffer
	require.NoError(t, runBookmarkShow(commandWithConfig(cfg, &out), nil))
	assert.Equal(t, "no bookmark recorded\n", out.String())
}

func TestBookmarkShowAndReset_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Spool.BookmarkPath = filepath.Join(dir, "unified2.bookmark")

	bookmark := unified2.NewBookmark(cfg.Spool.BookmarkPath)
	require.NoError(t, bookmark.Set("unified2.log.0000012345", 4096))

	filename, offset, err := bookmark.Get()
	require.NoError(t, err)
	assert.Equal(t, "unified2.log.0000012345", filename)
	assert.EqualValues(t, 4096, offset)

	var showOut bytes.Buffer
	require.NoError(t, runBookmarkShow(commandWithConfig(cfg, &showOut), nil))
	assert.Equal(t, "unified2.log.0000012345\t4096\n", showOut.String())

	var resetOut bytes.Buffer
	require.NoError(t, runBookmarkReset(commandWithConfig(cfg, &resetOut), nil))
	assert.Equal(t, "bookmark "+cfg.Spool.BookmarkPath+" removed\n", resetOut.String())
	_, err = os.Stat(cfg.Spool.BookmarkPath)
	assert.True(t, os.IsNotExist(err))
}
