// Package demux implements the stream demultiplexer for AudioTee capture
// files. It splits a recorded dual-stream capture into per-stream raw PCM
// by routing each packet's payload to the sink registered for its stream
// ID, headers stripped, original file order preserved. Payloads are opaque
// and copied verbatim; no sample decoding or timestamp interpretation is
// performed.
//
// The central type is [Demuxer], which reads from an [io.Reader]. Sinks are
// registered per stream ID with [Demuxer.Route]; adding a new stream type
// is a data change, not a code change. [ExtractFile] wraps a Demuxer with
// the file handling for a complete extraction session.
package demux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mrzilvis/audiotee/capture"
)

// StreamCount reports the packets and payload bytes written to one sink.
type StreamCount struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
}

// Demuxer reads length-prefixed capture packets from a reader and routes
// payload bytes to per-stream sinks. Packets whose stream ID has no
// registered sink are consumed and dropped silently. Input ending
// mid-header or mid-payload is the expected end-of-stream condition, not
// an error: the run terminates normally and no partial payload is written.
type Demuxer struct {
	r   io.Reader
	log *slog.Logger

	sinks  map[uint8]io.Writer
	counts map[uint8]*StreamCount

	droppedPackets uint64
	droppedBytes   uint64

	payload []byte // reused across packets, grown as needed
}

// NewDemuxer creates a Demuxer reading from r. A nil logger falls back to
// the default logger.
func NewDemuxer(r io.Reader, log *slog.Logger) *Demuxer {
	if log == nil {
		log = slog.Default()
	}
	return &Demuxer{
		r:      r,
		log:    log,
		sinks:  make(map[uint8]io.Writer),
		counts: make(map[uint8]*StreamCount),
	}
}

// Route registers w as the sink for packets tagged with the given stream
// ID, replacing any previous sink for that ID. Must be called before Run.
func (d *Demuxer) Route(id uint8, w io.Writer) {
	d.sinks[id] = w
	d.counts[id] = &StreamCount{}
}

// Run demultiplexes the input until it is exhausted. Truncation (a short
// header or a payload shorter than its declared size) terminates the run
// normally with the partial packet discarded. Read and sink write failures
// are fatal and abort the run immediately. Counts accumulated before a
// fatal error remain readable via Counts.
func (d *Demuxer) Run(ctx context.Context) error {
	hdr := make([]byte, capture.HeaderSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.ReadFull(d.r, hdr); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil // end of stream, possibly mid-header
			}
			return fmt.Errorf("demux: read header: %w", err)
		}
		h, err := capture.ParseHeader(hdr)
		if err != nil {
			return err
		}

		if cap(d.payload) < int(h.PacketSize) {
			d.payload = make([]byte, h.PacketSize)
		}
		payload := d.payload[:h.PacketSize]
		if _, err := io.ReadFull(d.r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil // truncated final packet, payload discarded
			}
			return fmt.Errorf("demux: read payload: %w", err)
		}

		sink, ok := d.sinks[h.StreamID]
		if !ok {
			d.droppedPackets++
			d.droppedBytes += uint64(h.PacketSize)
			d.log.Debug("dropped packet with no sink",
				"stream", h.StreamID,
				"timestamp_us", h.TimestampUS,
				"bytes", h.PacketSize,
			)
			continue
		}

		if _, err := sink.Write(payload); err != nil {
			return fmt.Errorf("demux: write %s payload: %w", capture.StreamName(h.StreamID), err)
		}
		c := d.counts[h.StreamID]
		c.Packets++
		c.Bytes += uint64(h.PacketSize)
	}
}

// PacketCount returns the number of packets written to the sink for the
// given stream ID, zero if no sink was registered.
func (d *Demuxer) PacketCount(id uint8) uint64 {
	if c, ok := d.counts[id]; ok {
		return c.Packets
	}
	return 0
}

// Counts returns a snapshot of per-stream write counters, keyed by stream
// ID, with an entry for every registered sink.
func (d *Demuxer) Counts() map[uint8]StreamCount {
	out := make(map[uint8]StreamCount, len(d.counts))
	for id, c := range d.counts {
		out[id] = *c
	}
	return out
}

// Dropped returns the number of packets and payload bytes consumed from
// the input but routed to no sink (unroutable stream ID or no sink
// registered for a known ID).
func (d *Demuxer) Dropped() (packets, bytes uint64) {
	return d.droppedPackets, d.droppedBytes
}
