package unified2

import (
	"bytes"
	"encoding/binary"
	"net"
)

// encodeRecord serializes a header+body pair exactly as it appears on the
// wire: big-endian type, big-endian length, then body.
func encodeRecord(typ uint32, body []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, typ)
	binary.Write(buf, binary.BigEndian, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func beBytes32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func beBytes16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// eventIPv4Body builds the fixed-layout body for an event-ipv4 (type 7)
// record.
func eventIPv4Body(sensorID, eventID uint32, sourceIP, destIP string) []byte {
	buf := &bytes.Buffer{}
	buf.Write(beBytes32(sensorID))
	buf.Write(beBytes32(eventID))
	buf.Write(beBytes32(0)) // event-second
	buf.Write(beBytes32(0)) // event-microsecond
	buf.Write(beBytes32(1001)) // signature-id
	buf.Write(beBytes32(1))    // generator-id
	buf.Write(beBytes32(1))    // signature-revision
	buf.Write(beBytes32(0))    // classification-id
	buf.Write(beBytes32(3))    // priority
	buf.Write(net.ParseIP(sourceIP).To4())
	buf.Write(net.ParseIP(destIP).To4())
	buf.Write(beBytes16(1234)) // sport
	buf.Write(beBytes16(80))   // dport
	buf.WriteByte(6)           // protocol (tcp)
	buf.WriteByte(0)           // impact-flag
	buf.WriteByte(0)           // impact
	buf.WriteByte(0)           // blocked
	return buf.Bytes()
}

// packetBody builds the fixed-layout body for a packet (type 2) record with
// the given trailing payload.
func packetBody(sensorID, eventID uint32, payload []byte) []byte {
	buf := &bytes.Buffer{}
	buf.Write(beBytes32(sensorID))
	buf.Write(beBytes32(eventID))
	buf.Write(beBytes32(0))                      // event-second
	buf.Write(beBytes32(0))                      // packet-second
	buf.Write(beBytes32(0))                      // packet-microsecond
	buf.Write(beBytes32(1))                      // linktype
	buf.Write(beBytes32(uint32(len(payload))))   // packet-length
	buf.Write(payload)
	return buf.Bytes()
}

// oneEvent synthesizes one event-ipv4 header followed by numPackets packet
// records, matching the shape of the reference implementation's
// seventeen-record fixture (one header + sixteen trailing records).
func oneEvent(sensorID, eventID uint32, sourceIP, destIP string, numPackets int) []byte {
	buf := &bytes.Buffer{}
	buf.Write(encodeRecord(TypeEventIPv4, eventIPv4Body(sensorID, eventID, sourceIP, destIP)))
	for i := 0; i < numPackets; i++ {
		buf.Write(encodeRecord(TypePacket, packetBody(sensorID, eventID, []byte{byte(i)})))
	}
	return buf.Bytes()
}
