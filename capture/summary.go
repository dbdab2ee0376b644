package capture

import (
	"errors"
	"fmt"
	"io"
)

// StreamSummary aggregates the complete packets seen for one stream ID.
// Timestamps are carried through from headers without interpretation beyond
// tracking the first and last values seen.
type StreamSummary struct {
	Packets          uint64 `json:"packets"`
	Bytes            uint64 `json:"bytes"`
	FirstTimestampUS uint64 `json:"firstTimestampUs"`
	LastTimestampUS  uint64 `json:"lastTimestampUs"`
}

// Summary describes the contents of a capture file: per-stream packet and
// byte counts keyed by stream ID, plus any trailing bytes belonging to an
// incomplete final packet.
type Summary struct {
	Streams        map[uint8]*StreamSummary `json:"streams"`
	TruncatedBytes int64                    `json:"truncatedBytes"`
}

// TotalPackets returns the number of complete packets across all streams.
func (s Summary) TotalPackets() uint64 {
	var n uint64
	for _, ss := range s.Streams {
		n += ss.Packets
	}
	return n
}

// Summarize walks a capture stream and accounts for every complete packet.
// A stream ending mid-header or mid-payload is a truncated final packet,
// not an error: the partial bytes are reported via TruncatedBytes and the
// walk terminates normally. Only genuine read failures return an error.
func Summarize(r io.Reader) (Summary, error) {
	s := Summary{Streams: make(map[uint8]*StreamSummary)}
	hdr := make([]byte, HeaderSize)

	for {
		n, err := io.ReadFull(r, hdr)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.TruncatedBytes = int64(n)
				return s, nil
			}
			return Summary{}, fmt.Errorf("capture: read header: %w", err)
		}
		h, err := ParseHeader(hdr)
		if err != nil {
			return Summary{}, err
		}

		skipped, err := io.CopyN(io.Discard, r, int64(h.PacketSize))
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.TruncatedBytes = int64(HeaderSize) + skipped
				return s, nil
			}
			return Summary{}, fmt.Errorf("capture: read payload: %w", err)
		}

		ss, ok := s.Streams[h.StreamID]
		if !ok {
			ss = &StreamSummary{FirstTimestampUS: h.TimestampUS}
			s.Streams[h.StreamID] = ss
		}
		ss.Packets++
		ss.Bytes += uint64(h.PacketSize)
		ss.LastTimestampUS = h.TimestampUS
	}
}
