// Package capture implements the AudioTee dual-stream capture file format:
// a flat sequence of length-prefixed packets, each tagged with a source
// stream identifier and a capture timestamp. Packets appear back-to-back
// with no padding, no container header, and no trailer.
//
// The central types are [Header], the fixed 13-byte packet header, and
// [Summary], a per-stream accounting of a capture file's contents.
package capture

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a packet header in bytes.
const HeaderSize = 13

// Source stream identifiers. Values outside this set are reserved and are
// not routed by the demultiplexer.
const (
	StreamSystem     uint8 = 0
	StreamMicrophone uint8 = 1
)

// Header is the fixed little-endian header preceding every packet payload:
// stream ID (1 byte), capture timestamp in microseconds (8 bytes), payload
// size (4 bytes). Field order and widths are a compatibility contract with
// producers of this format.
type Header struct {
	StreamID    uint8
	TimestampUS uint64
	PacketSize  uint32
}

// ParseHeader decodes a packet header from buf, which must be exactly
// HeaderSize bytes.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("capture: header size %d, expected %d", len(buf), HeaderSize)
	}
	return Header{
		StreamID:    buf[0],
		TimestampUS: binary.LittleEndian.Uint64(buf[1:9]),
		PacketSize:  binary.LittleEndian.Uint32(buf[9:13]),
	}, nil
}

// AppendPacket appends a complete packet (header plus payload) for the
// given stream to dst and returns the extended slice.
func AppendPacket(dst []byte, streamID uint8, timestampUS uint64, payload []byte) []byte {
	dst = append(dst, streamID)
	dst = binary.LittleEndian.AppendUint64(dst, timestampUS)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// StreamName returns a human-readable label for a stream ID.
func StreamName(id uint8) string {
	switch id {
	case StreamSystem:
		return "system"
	case StreamMicrophone:
		return "microphone"
	default:
		return fmt.Sprintf("stream %d", id)
	}
}
