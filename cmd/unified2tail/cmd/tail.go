package cmd

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arborwatch/unified2spool/internal/logging"
	"github.com/arborwatch/unified2spool/pkg/catalog"
	"github.com/arborwatch/unified2spool/pkg/statusapi"
	"github.com/arborwatch/unified2spool/pkg/unified2"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Tail a unified2 spool directory, printing one JSON line per event",
	RunE:  runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().Bool("no-catalog", false, "skip writing delivered events to the catalog")
	tailCmd.Flags().Bool("no-http", false, "don't serve the status API alongside the tail loop")
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd)
	noCatalog, _ := cmd.Flags().GetBool("no-catalog")
	noHTTP, _ := cmd.Flags().GetBool("no-http")

	if err := os.MkdirAll(cfg.Spool.Directory, 0755); err != nil {
		return errors.Wrap(err, "creating spool directory")
	}

	var cat *catalog.EventCatalog
	if !noCatalog {
		if err := os.MkdirAll(cfg.Catalog.Directory, 0755); err != nil {
			return errors.Wrap(err, "creating catalog directory")
		}
		opened, err := catalog.Open(cfg.Catalog.Directory)
		if err != nil {
			return errors.Wrap(err, "opening catalog")
		}
		cat = opened
		defer cat.Close()
	}

	bookmark := unified2.NewBookmark(cfg.Spool.BookmarkPath)
	reader, err := unified2.NewSpoolEventReader(cfg.Spool.Directory, cfg.Spool.Prefix, nil, bookmark)
	if err != nil {
		return errors.Wrap(err, "constructing spool event reader")
	}
	defer reader.Close()

	metrics := statusapi.NewMetrics()

	reader.OnRollover(func(closed, opened string) {
		logging.Infof("spool rollover: %s -> %s", closed, opened)
		metrics.RecordSpoolRollover()
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !noHTTP && cat == nil {
		logging.Warnf("status API disabled: --no-catalog was given and the status API's catalog endpoints require one")
		noHTTP = true
	}

	if !noHTTP {
		pos := &bookmarkPosition{bookmark: bookmark}
		server := statusapi.NewServerWithMetrics(cat, pos, metrics)
		serverCfg := statusapi.ServerConfig{Bind: cfg.HTTP.Bind, Port: cfg.HTTP.Port}

		go func() {
			logging.Infof("status API listening on %s:%d", cfg.HTTP.Bind, cfg.HTTP.Port)
			if err := server.ListenAndServe(serverCfg); err != nil && err != http.ErrServerClosed {
				logging.Errorf("status API exited: %v", err)
			}
		}()
	}

	pollInterval := cfg.Spool.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return pollLoop(ctx, pollInterval, func() error {
		for {
			event, err := reader.Next()
			if err != nil {
				var decodeErr *unified2.DecodeError
				if stderrors.As(err, &decodeErr) {
					metrics.RecordDecodeError()
					logging.Errorf("decode error: %v", decodeErr)
				}
				return err
			}
			if event == nil {
				return nil
			}

			metrics.RecordEventEmitted()
			metrics.RecordBookmarkWrite()
			for _, rec := range event.Records {
				metrics.RecordDecoded(rec.Kind.String())
			}

			if cat != nil {
				filename, offset := currentPosition(bookmark)
				if _, err := cat.Put(event, filename, offset, time.Now()); err != nil {
					logging.Errorf("catalog put failed: %v", err)
				} else {
					metrics.SetCatalogEntries(cat.Stats().TotalEntries)
				}
			}

			if err := printEvent(event); err != nil {
				return err
			}
		}
	})
}

// currentPosition reads back the bookmark just written by the event reader,
// so the catalog entry always reflects the durable position rather than an
// in-memory guess.
func currentPosition(bookmark *unified2.Bookmark) (string, int64) {
	filename, offset, err := bookmark.Get()
	if err != nil {
		return "", 0
	}
	return filename, offset
}

func printEvent(event *unified2.Event) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(eventToJSON(event))
}

func eventToJSON(event *unified2.Event) map[string]interface{} {
	records := make([]interface{}, 0, len(event.Records))
	for _, rec := range event.Records {
		records = append(records, recordToJSON(rec))
	}
	return map[string]interface{}{
		"sensor-id": event.Key.SensorID,
		"event-id":  event.Key.EventID,
		"records":   records,
	}
}

func recordToJSON(rec *unified2.Record) interface{} {
	switch rec.Kind {
	case unified2.KindEvent:
		return rec.Event
	case unified2.KindPacket:
		return rec.Packet
	case unified2.KindExtraData:
		return rec.ExtraData
	default:
		return rec.Unknown
	}
}

// pollLoop invokes poll immediately and then on every tick of interval
// until ctx is canceled.
func pollLoop(ctx context.Context, interval time.Duration, poll func() error) error {
	if err := poll(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "tail: shutting down")
			return nil
		case <-ticker.C:
			if err := poll(); err != nil {
				return err
			}
		}
	}
}
