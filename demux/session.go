package demux

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Result reports the outcome of one extraction session: per-stream write
// counters for every sink that was opened, plus the packets and bytes that
// matched no sink.
type Result struct {
	Counts         map[uint8]StreamCount
	DroppedPackets uint64
	DroppedBytes   uint64
}

// ExtractFile demultiplexes the capture file at inputPath into the
// requested sink files. sinkPaths maps stream IDs to output paths; every
// listed sink is created (truncating any existing file) before the first
// packet is read, so a sink that matches zero packets still ends up as an
// empty file. Streams with no entry in sinkPaths are consumed and
// discarded. All file handles are released on every exit path, and on
// success each sink is synced to durable storage before its counts are
// reported. Any I/O failure is fatal to the session; bytes already written
// remain on disk as-is.
func ExtractFile(ctx context.Context, inputPath string, sinkPaths map[uint8]string) (Result, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("demux: open input: %w", err)
	}
	defer in.Close()

	sinks := make(map[uint8]*os.File, len(sinkPaths))
	defer func() {
		for _, f := range sinks {
			f.Close()
		}
	}()

	d := NewDemuxer(bufio.NewReader(in), slog.With("component", "demux", "input", inputPath))
	for id, path := range sinkPaths {
		f, err := os.Create(path)
		if err != nil {
			return Result{}, fmt.Errorf("demux: create sink for stream %d: %w", id, err)
		}
		sinks[id] = f
		d.Route(id, f)
	}

	if err := d.Run(ctx); err != nil {
		return Result{}, err
	}

	// Counts are only reported once the payloads behind them are durable.
	for id, f := range sinks {
		if err := f.Sync(); err != nil {
			return Result{}, fmt.Errorf("demux: sync sink for stream %d: %w", id, err)
		}
	}

	res := Result{Counts: d.Counts()}
	res.DroppedPackets, res.DroppedBytes = d.Dropped()
	return res, nil
}
