// Command extract-streams demultiplexes a recorded AudioTee dual-stream
// capture file into two raw PCM files, one for system audio and one for
// the microphone. The outputs carry no header; the sample format must be
// known out of band.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrzilvis/audiotee/capture"
	"github.com/mrzilvis/audiotee/demux"
)

const (
	defaultSystemPath = "system_extracted.pcm"
	defaultMicPath    = "mic_extracted.pcm"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: extract-streams <capture-file> [system-output.pcm] [mic-output.pcm]\n")
		os.Exit(1)
	}

	inputPath := os.Args[1]
	systemPath := defaultSystemPath
	if len(os.Args) > 2 {
		systemPath = os.Args[2]
	}
	micPath := defaultMicPath
	if len(os.Args) > 3 {
		micPath = os.Args[3]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, abandoning extraction", "signal", sig)
		cancel()
	}()

	res, err := demux.ExtractFile(ctx, inputPath, map[uint8]string{
		capture.StreamSystem:     systemPath,
		capture.StreamMicrophone: micPath,
	})
	if err != nil {
		slog.Error("extraction failed", "input", inputPath, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted %d system audio packets to %s\n", res.Counts[capture.StreamSystem].Packets, systemPath)
	fmt.Printf("Extracted %d microphone packets to %s\n", res.Counts[capture.StreamMicrophone].Packets, micPath)
}
