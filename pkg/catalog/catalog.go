// Package catalog provides a durable, queryable record of delivered
// unified2 events, independent of (and alongside) the reader's bookmark.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/arborwatch/unified2spool/pkg/unified2"
)

// Entry is a durable record of one delivered Event.
type Entry struct {
	ID               ksuid.KSUID `json:"id"`
	SensorID         uint32      `json:"sensor-id"`
	EventID          uint32      `json:"event-id"`
	RecordCount      int         `json:"record-count"`
	BookmarkFilename string      `json:"bookmark-filename"`
	BookmarkOffset   int64       `json:"bookmark-offset"`
	DeliveredAt      time.Time   `json:"delivered-at"`
}

// EventCatalog is a durable, append-only catalog of delivered events backed
// by an embedded pebble database, with an in-memory secondary index and a
// short-lived cache of recently written ids that Lookup consults first.
// Every Put writes to pebble; the cache does not deduplicate writes.
type EventCatalog struct {
	db    *pebble.DB
	index *EventIndex
	hot   *ttlcache.Cache[eventKeyPair, ksuid.KSUID]
}

// eventKeyPair is the TTL cache's key type; EventIndex uses the exported
// unified2.EventKey shape directly.
type eventKeyPair struct {
	SensorID uint32
	EventID  uint32
}

// Open opens (or creates) a catalog at path.
func Open(path string) (*EventCatalog, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: opening pebble database at %s", path)
	}

	c := &EventCatalog{
		db:    db,
		index: NewEventIndex(),
		hot: ttlcache.New[eventKeyPair, ksuid.KSUID](
			ttlcache.WithTTL[eventKeyPair, ksuid.KSUID](30 * time.Second),
		),
	}
	go c.hot.Start()

	if err := c.rebuildIndex(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// rebuildIndex scans the pebble database and repopulates the in-memory
// secondary index, giving Lookup correct results immediately after a
// restart even before any new event has been put.
func (c *EventCatalog) rebuildIndex() error {
	iter, err := c.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return errors.Wrap(err, "catalog: opening rebuild iterator")
	}
	defer iter.Close()

	for valid := iter.First(); valid; valid = iter.Next() {
		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue // tolerate a stray unreadable record rather than fail startup
		}
		c.index.Put(unified2.EventKey{SensorID: entry.SensorID, EventID: entry.EventID}, entry.ID)
	}
	return iter.Error()
}

// Put appends a new catalog entry for event, keyed against its bookmark
// position. It is always an insert, never an update: replaying the same
// (sensor-id, event-id) after a restart records a new entry rather than
// being rejected or overwritten, so the catalog remains a history.
func (c *EventCatalog) Put(event *unified2.Event, bookmarkFilename string, bookmarkOffset int64, deliveredAt time.Time) (ksuid.KSUID, error) {
	id := ksuid.New()
	entry := Entry{
		ID:               id,
		SensorID:         event.Key.SensorID,
		EventID:          event.Key.EventID,
		RecordCount:      len(event.Records),
		BookmarkFilename: bookmarkFilename,
		BookmarkOffset:   bookmarkOffset,
		DeliveredAt:      deliveredAt,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "catalog: marshaling entry")
	}

	if err := c.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return ksuid.Nil, errors.Wrap(err, "catalog: writing entry")
	}

	key := unified2.EventKey{SensorID: event.Key.SensorID, EventID: event.Key.EventID}
	c.index.Put(key, id)
	c.hot.Set(eventKeyPair(key), id, ttlcache.DefaultTTL)

	return id, nil
}

// Get retrieves a single entry by its catalog id.
func (c *EventCatalog) Get(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := c.db.Get(id.Bytes())
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "catalog: reading entry")
	}
	defer closer.Close()

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrap(err, "catalog: unmarshaling entry")
	}
	return &entry, nil
}

// Lookup returns the most recently delivered entry for (sensorID, eventID),
// if any. The hot TTL cache, which holds the ids Put wrote in the last 30
// seconds, is consulted before the index.
func (c *EventCatalog) Lookup(sensorID, eventID uint32) (*Entry, bool) {
	key := unified2.EventKey{SensorID: sensorID, EventID: eventID}

	if item := c.hot.Get(eventKeyPair(key)); item != nil {
		entry, err := c.Get(item.Value())
		if err == nil {
			return entry, true
		}
	}

	id, ok := c.index.Get(key)
	if !ok {
		return nil, false
	}
	entry, err := c.Get(id)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// Stats summarizes catalog contents.
type Stats struct {
	TotalEntries int `json:"total-entries"`
}

// Stats returns current catalog statistics.
func (c *EventCatalog) Stats() Stats {
	return Stats{TotalEntries: c.index.Size()}
}

// Close releases the catalog's pebble handle and stops its background TTL
// eviction goroutine.
func (c *EventCatalog) Close() error {
	c.hot.Stop()
	return c.db.Close()
}

// ErrNotFound is returned by Get when no entry exists for the given id.
var ErrNotFound = errors.New("catalog: entry not found")
