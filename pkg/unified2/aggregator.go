package unified2

import "github.com/arborwatch/unified2spool/internal/logging"

// EventKey identifies an in-progress or delivered event by the sensor and
// event id carried on its leading event-header record.
type EventKey struct {
	SensorID uint32
	EventID  uint32
}

// Event is an ordered, non-empty sequence of records sharing one EventKey.
// The first record is always an event-kind record.
type Event struct {
	Key     EventKey
	Records []*Record
}

// Aggregator folds a record stream into Events by (sensor-id, event-id),
// using "emit previous on new event-header" semantics: unified2 marks the
// start of an event but not its end, so only the next event-header (or an
// explicit Flush) closes one out.
type Aggregator struct {
	pending []*Record
	current EventKey
	active  bool
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add feeds one record into the aggregator. It returns the just-completed
// Event if record's arrival closed one out, or nil otherwise.
func (a *Aggregator) Add(record *Record) *Event {
	if record.Kind == KindEvent {
		var emitted *Event
		if len(a.pending) > 0 {
			emitted = a.emit()
		}
		sensorID, eventID, _ := record.SensorEventID()
		a.current = EventKey{SensorID: sensorID, EventID: eventID}
		a.active = true
		a.pending = append(a.pending, record)
		return emitted
	}

	sensorID, eventID, ok := record.SensorEventID()
	if !ok || !a.active || sensorID != a.current.SensorID || eventID != a.current.EventID {
		// Interleaved stray record, or a record with no decodable key at
		// all (an unknown type): drop it, noting it at debug level.
		if ok {
			logging.Debugf("unified2: dropping stray record kind=%s sensor-id=%d event-id=%d", record.Kind, sensorID, eventID)
		} else {
			logging.Debugf("unified2: dropping record kind=%s with no decodable event key", record.Kind)
		}
		return nil
	}
	a.pending = append(a.pending, record)
	return nil
}

// Flush closes out any in-progress event, returning it, or nil if nothing
// is pending.
func (a *Aggregator) Flush() *Event {
	if len(a.pending) == 0 {
		return nil
	}
	return a.emit()
}

func (a *Aggregator) emit() *Event {
	ev := &Event{Key: a.current, Records: a.pending}
	a.pending = nil
	a.active = false
	return ev
}
