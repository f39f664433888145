package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arborwatch/unified2spool/internal/logging"
	"github.com/arborwatch/unified2spool/pkg/catalog"
	"github.com/arborwatch/unified2spool/pkg/statusapi"
	"github.com/arborwatch/unified2spool/pkg/unified2"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only status API over an existing catalog and bookmark",
	Long: `Start the status HTTP server exposing health, current tail position,
catalog diagnostics and Prometheus metrics for an already-running (or
previously run) unified2tail instance sharing the same catalog and
bookmark paths.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "override the configured bind address")
	serveCmd.Flags().Int("port", 0, "override the configured port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd)

	bind, _ := cmd.Flags().GetString("bind")
	if bind != "" {
		cfg.HTTP.Bind = bind
	}
	port, _ := cmd.Flags().GetInt("port")
	if port != 0 {
		cfg.HTTP.Port = port
	}

	if err := os.MkdirAll(cfg.Catalog.Directory, 0755); err != nil {
		return errors.Wrap(err, "creating catalog directory")
	}
	cat, err := catalog.Open(cfg.Catalog.Directory)
	if err != nil {
		return errors.Wrap(err, "opening catalog")
	}
	defer cat.Close()

	pos := &bookmarkPosition{bookmark: unified2.NewBookmark(cfg.Spool.BookmarkPath)}

	server := statusapi.NewServer(cat, pos)

	logging.Infof("status API listening on %s:%d", cfg.HTTP.Bind, cfg.HTTP.Port)
	return server.ListenAndServe(statusapi.ServerConfig{
		Bind: cfg.HTTP.Bind,
		Port: cfg.HTTP.Port,
	})
}
