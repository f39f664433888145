// Package unified2 decodes, tails and aggregates unified2 IDS event logs
// produced by Snort and Suricata.
package unified2

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
)

// Record type codes as they appear on the wire.
const (
	TypePacket       uint32 = 2
	TypeEventIPv4    uint32 = 7
	TypeEventIPv6    uint32 = 72
	TypeEventV2IPv4  uint32 = 104
	TypeEventV2IPv6  uint32 = 105
	TypeExtraData    uint32 = 110
)

// HeaderSize is the fixed size of a record header: type (u32) + length (u32).
const HeaderSize = 8

// DefaultMaxBodyLen is the sanity bound applied to a record's declared body
// length when no caller-supplied bound is configured.
const DefaultMaxBodyLen = 65535

// Kind identifies which of the mutually-exclusive fields on Record is populated.
type Kind int

const (
	// KindUnknown marks a record whose type code was not recognized.
	KindUnknown Kind = iota
	KindEvent
	KindPacket
	KindExtraData
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindPacket:
		return "packet"
	case KindExtraData:
		return "extra-data"
	default:
		return "unknown"
	}
}

// IsEventType reports whether a wire type code is one of the four event-header kinds.
func IsEventType(recordType uint32) bool {
	switch recordType {
	case TypeEventIPv4, TypeEventIPv6, TypeEventV2IPv4, TypeEventV2IPv6:
		return true
	default:
		return false
	}
}

// EventRecord is the decoded form of event types 7, 72, 104 and 105. The
// IPv4/IPv6 distinction is carried by the length of SourceIP/DestinationIP's
// string form, not by a separate field.
type EventRecord struct {
	SensorID          uint32 `json:"sensor-id"`
	EventID           uint32 `json:"event-id"`
	EventSecond       uint32 `json:"event-second"`
	EventMicrosecond  uint32 `json:"event-microsecond"`
	SignatureID       uint32 `json:"signature-id"`
	GeneratorID       uint32 `json:"generator-id"`
	SignatureRevision uint32 `json:"signature-revision"`
	ClassificationID  uint32 `json:"classification-id"`
	Priority          uint32 `json:"priority"`
	SourceIP          string `json:"source-ip"`
	DestinationIP     string `json:"destination-ip"`
	SPortOrICMPType   uint16 `json:"sport-itype"`
	DPortOrICMPCode   uint16 `json:"dport-icode"`
	Protocol          uint8  `json:"protocol"`
	ImpactFlag        uint8  `json:"impact-flag"`
	Impact            uint8  `json:"impact"`
	Blocked           uint8  `json:"blocked"`
	MPLSLabel         uint32 `json:"mpls-label,omitempty"`
	VlanID            uint16 `json:"vlan-id,omitempty"`
}

// packetRecordHdrLen is the fixed-field length of a PacketRecord before its
// variable-length packet data.
const packetRecordHdrLen = 28

// PacketRecord is the decoded form of type 2.
type PacketRecord struct {
	SensorID          uint32 `json:"sensor-id"`
	EventID           uint32 `json:"event-id"`
	EventSecond       uint32 `json:"event-second"`
	PacketSecond      uint32 `json:"packet-second"`
	PacketMicrosecond uint32 `json:"packet-microsecond"`
	LinkType          uint32 `json:"linktype"`
	Length            uint32 `json:"packet-length"`
	Data              []byte `json:"-"`
}

// extraDataRecordHdrLen is the fixed-field length of an ExtraDataRecord
// before its variable-length data.
const extraDataRecordHdrLen = 32

// ExtraDataRecord is the decoded form of type 110.
type ExtraDataRecord struct {
	EventType   uint32 `json:"event-type"`
	EventLength uint32 `json:"event-length"`
	SensorID    uint32 `json:"sensor-id"`
	EventID     uint32 `json:"event-id"`
	EventSecond uint32 `json:"event-second"`
	Type        uint32 `json:"type"`
	DataType    uint32 `json:"data-type"`
	DataLength  uint32 `json:"data-length"`
	Data        []byte `json:"-"`
}

// UnknownRecord preserves the raw body of a record whose type code was not
// recognized.
type UnknownRecord struct {
	Type uint32 `json:"type"`
	Data []byte `json:"-"`
}

// Record is a tagged union over the four record shapes this package
// understands. Exactly one of Event, Packet, ExtraData, Unknown is non-nil,
// matching Kind.
type Record struct {
	Kind      Kind
	Type      uint32
	Event     *EventRecord
	Packet    *PacketRecord
	ExtraData *ExtraDataRecord
	Unknown   *UnknownRecord
}

// SensorEventID returns the (sensor-id, event-id) pair carried by r, and
// whether r carries one at all. Unknown records never carry a decodable key.
func (r *Record) SensorEventID() (sensorID, eventID uint32, ok bool) {
	switch r.Kind {
	case KindEvent:
		return r.Event.SensorID, r.Event.EventID, true
	case KindPacket:
		return r.Packet.SensorID, r.Packet.EventID, true
	case KindExtraData:
		return r.ExtraData.SensorID, r.ExtraData.EventID, true
	default:
		return 0, 0, false
	}
}

// DecodeError indicates a record body that is structurally malformed for its
// declared type: shorter than the fixed layout requires, or over the
// configured body-length sanity bound.
type DecodeError struct {
	Type uint32
	Msg  string
}

func (e *DecodeError) Error() string {
	return "unified2: decode error for type " + itoa(e.Type) + ": " + e.Msg
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// Decoder decodes record bodies. A zero-value Decoder uses DefaultMaxBodyLen.
type Decoder struct {
	// MaxBodyLen bounds the declared body length a caller is willing to
	// buffer for a single record. Zero means DefaultMaxBodyLen.
	MaxBodyLen uint32
}

func (d *Decoder) maxBodyLen() uint32 {
	if d.MaxBodyLen == 0 {
		return DefaultMaxBodyLen
	}
	return d.MaxBodyLen
}

// Decode parses a record body already known to be exactly length bytes long
// (the caller, typically RecordReader, has already performed the atomic
// header+body read). typ is the record's wire type code.
func (d *Decoder) Decode(typ uint32, body []byte) (*Record, error) {
	if uint32(len(body)) > d.maxBodyLen() {
		return nil, &DecodeError{Type: typ, Msg: "body length exceeds configured bound"}
	}

	switch {
	case IsEventType(typ):
		ev, err := decodeEventRecord(typ, body)
		if err != nil {
			return nil, err
		}
		return &Record{Kind: KindEvent, Type: typ, Event: ev}, nil
	case typ == TypePacket:
		pkt, err := decodePacketRecord(body)
		if err != nil {
			return nil, err
		}
		return &Record{Kind: KindPacket, Type: typ, Packet: pkt}, nil
	case typ == TypeExtraData:
		extra, err := decodeExtraDataRecord(body)
		if err != nil {
			return nil, err
		}
		return &Record{Kind: KindExtraData, Type: typ, ExtraData: extra}, nil
	default:
		return &Record{Kind: KindUnknown, Type: typ, Unknown: &UnknownRecord{Type: typ, Data: body}}, nil
	}
}

func decodeEventRecord(typ uint32, body []byte) (*EventRecord, error) {
	var addrLen int
	switch typ {
	case TypeEventIPv4, TypeEventV2IPv4:
		addrLen = 4
	case TypeEventIPv6, TypeEventV2IPv6:
		addrLen = 16
	}

	fixedLen := 36 + 2*addrLen + 8
	if len(body) < fixedLen {
		return nil, &DecodeError{Type: typ, Msg: "body shorter than event record layout"}
	}

	ev := &EventRecord{}
	off := 0
	ev.SensorID = beU32(body, off)
	off += 4
	ev.EventID = beU32(body, off)
	off += 4
	ev.EventSecond = beU32(body, off)
	off += 4
	ev.EventMicrosecond = beU32(body, off)
	off += 4
	ev.SignatureID = beU32(body, off)
	off += 4
	ev.GeneratorID = beU32(body, off)
	off += 4
	ev.SignatureRevision = beU32(body, off)
	off += 4
	ev.ClassificationID = beU32(body, off)
	off += 4
	ev.Priority = beU32(body, off)
	off += 4

	ev.SourceIP = formatIP(body[off : off+addrLen])
	off += addrLen
	ev.DestinationIP = formatIP(body[off : off+addrLen])
	off += addrLen

	ev.SPortOrICMPType = beU16(body, off)
	off += 2
	ev.DPortOrICMPCode = beU16(body, off)
	off += 2
	ev.Protocol = body[off]
	off++
	ev.ImpactFlag = body[off]
	off++
	ev.Impact = body[off]
	off++
	ev.Blocked = body[off]
	off++

	if typ == TypeEventV2IPv4 || typ == TypeEventV2IPv6 {
		if len(body) < off+8 {
			return nil, &DecodeError{Type: typ, Msg: "body shorter than event-v2 trailer"}
		}
		ev.MPLSLabel = beU32(body, off)
		off += 4
		ev.VlanID = beU16(body, off)
	}

	return ev, nil
}

func decodePacketRecord(body []byte) (*PacketRecord, error) {
	if len(body) < packetRecordHdrLen {
		return nil, &DecodeError{Type: TypePacket, Msg: "body shorter than packet record header"}
	}
	pkt := &PacketRecord{
		SensorID:          beU32(body, 0),
		EventID:           beU32(body, 4),
		EventSecond:       beU32(body, 8),
		PacketSecond:      beU32(body, 12),
		PacketMicrosecond: beU32(body, 16),
		LinkType:          beU32(body, 20),
		Length:            beU32(body, 24),
	}
	pkt.Data = body[packetRecordHdrLen:]
	return pkt, nil
}

func decodeExtraDataRecord(body []byte) (*ExtraDataRecord, error) {
	if len(body) < extraDataRecordHdrLen {
		return nil, &DecodeError{Type: TypeExtraData, Msg: "body shorter than extra-data record header"}
	}
	extra := &ExtraDataRecord{
		EventType:   beU32(body, 0),
		EventLength: beU32(body, 4),
		SensorID:    beU32(body, 8),
		EventID:     beU32(body, 12),
		EventSecond: beU32(body, 16),
		Type:        beU32(body, 20),
		DataType:    beU32(body, 24),
		DataLength:  beU32(body, 28),
	}
	extra.Data = body[extraDataRecordHdrLen:]
	return extra, nil
}

func beU32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}

func beU16(b []byte, off int) uint16 {
	return binary.BigEndian.Uint16(b[off : off+2])
}

func formatIP(b []byte) string {
	ip := net.IP(append([]byte(nil), b...))
	return ip.String()
}

// ErrShortDecoder is an exported sentinel for a short decoder input. No
// function in this package returns it; Decode reports short bodies as a
// *DecodeError.
var ErrShortDecoder = errors.New("unified2: short buffer passed to decoder")
