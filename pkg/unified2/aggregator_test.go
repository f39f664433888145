package unified2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, data []byte) []*Record {
	t.Helper()
	rr, err := NewRecordReader(bytes.NewReader(data), nil)
	require.NoError(t, err)
	var recs []*Record
	for {
		rec, err := rr.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestAggregator_SingleEvent(t *testing.T) {
	recs := decodeAll(t, oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 16))

	agg := NewAggregator()
	var emitted *Event
	for _, rec := range recs {
		if ev := agg.Add(rec); ev != nil {
			emitted = ev
		}
	}
	assert.Nil(t, emitted) // nothing flushed until a new header or explicit Flush

	final := agg.Flush()
	require.NotNil(t, final)
	assert.Equal(t, EventKey{SensorID: 1, EventID: 1}, final.Key)
	assert.Len(t, final.Records, 17)
}

func TestAggregator_EmitsPreviousOnNewHeader(t *testing.T) {
	var recs []*Record
	recs = append(recs, decodeAll(t, oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 3))...)
	recs = append(recs, decodeAll(t, oneEvent(1, 2, "9.9.9.9", "8.8.8.8", 2))...)

	agg := NewAggregator()
	var emitted []*Event
	for _, rec := range recs {
		if ev := agg.Add(rec); ev != nil {
			emitted = append(emitted, ev)
		}
	}
	if final := agg.Flush(); final != nil {
		emitted = append(emitted, final)
	}

	require.Len(t, emitted, 2)
	assert.Equal(t, uint32(1), emitted[0].Key.EventID)
	assert.Len(t, emitted[0].Records, 4)
	assert.Equal(t, uint32(2), emitted[1].Key.EventID)
	assert.Len(t, emitted[1].Records, 3)
}

func TestAggregator_DropsInterleavedStray(t *testing.T) {
	recs := decodeAll(t, oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 4))
	// Mutate the last record's event-id so it no longer matches the
	// in-progress event; the aggregator must silently drop it.
	last := recs[len(recs)-1]
	last.Packet.EventID = 999

	agg := NewAggregator()
	for _, rec := range recs {
		agg.Add(rec)
	}
	final := agg.Flush()
	require.NotNil(t, final)
	assert.Len(t, final.Records, 4) // one header + 3 packets; the mutated one dropped
}

func TestAggregator_DropsUnknownWithNoKey(t *testing.T) {
	agg := NewAggregator()
	header := decodeAll(t, oneEvent(1, 1, "1.2.3.4", "5.6.7.8", 0))[0]
	agg.Add(header)

	unknown := &Record{Kind: KindUnknown, Type: 9999, Unknown: &UnknownRecord{Type: 9999}}
	ev := agg.Add(unknown)
	assert.Nil(t, ev)

	final := agg.Flush()
	require.NotNil(t, final)
	assert.Len(t, final.Records, 1)
}
