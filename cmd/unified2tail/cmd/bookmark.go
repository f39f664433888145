package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arborwatch/unified2spool/pkg/unified2"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Inspect or reset the durable tail bookmark",
}

var bookmarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current bookmark filename and offset",
	RunE:  runBookmarkShow,
}

var bookmarkResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the bookmark file, causing the next tail to start from the first spool file",
	RunE:  runBookmarkReset,
}

func init() {
	rootCmd.AddCommand(bookmarkCmd)
	bookmarkCmd.AddCommand(bookmarkShowCmd)
	bookmarkCmd.AddCommand(bookmarkResetCmd)
}

func runBookmarkShow(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd)
	bookmark := unified2.NewBookmark(cfg.Spool.BookmarkPath)

	filename, offset, err := bookmark.Get()
	if err != nil {
		return errors.Wrap(err, "reading bookmark")
	}
	if filename == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no bookmark recorded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", filename, offset)
	return nil
}

func runBookmarkReset(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd)

	if err := os.Remove(cfg.Spool.BookmarkPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "removing bookmark file")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bookmark %s removed\n", cfg.Spool.BookmarkPath)
	return nil
}
