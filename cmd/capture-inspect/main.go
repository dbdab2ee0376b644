// Command capture-inspect summarizes one or more AudioTee capture files:
// per-stream packet and byte counts, capture timestamp span, unrouted
// stream IDs, and any truncated trailing bytes. It reads headers only and
// never writes output files.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mrzilvis/audiotee/capture"
)

type fileSummary struct {
	Path    string          `json:"path"`
	Summary capture.Summary `json:"summary"`
}

func main() {
	jsonFlag := flag.Bool("json", false, "Emit summaries as JSON")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: capture-inspect [-json] <capture-file> [capture-file ...]\n")
		os.Exit(1)
	}

	summaries := make([]fileSummary, flag.NArg())
	g, _ := errgroup.WithContext(context.Background())
	for i, path := range flag.Args() {
		i, path := i, path
		g.Go(func() error {
			s, err := summarizeFile(path)
			if err != nil {
				return err
			}
			summaries[i] = fileSummary{Path: path, Summary: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	for _, fs := range summaries {
		printSummary(fs)
	}
}

func summarizeFile(path string) (capture.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return capture.Summary{}, err
	}
	defer f.Close()

	s, err := capture.Summarize(bufio.NewReader(f))
	if err != nil {
		return capture.Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func printSummary(fs fileSummary) {
	fmt.Printf("%s: %d packets\n", fs.Path, fs.Summary.TotalPackets())

	ids := make([]uint8, 0, len(fs.Summary.Streams))
	for id := range fs.Summary.Streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		ss := fs.Summary.Streams[id]
		note := ""
		if id != capture.StreamSystem && id != capture.StreamMicrophone {
			note = " (unrouted)"
		}
		fmt.Printf("  %-12s %d packets, %d bytes, ts %d-%d us%s\n",
			capture.StreamName(id)+":", ss.Packets, ss.Bytes,
			ss.FirstTimestampUS, ss.LastTimestampUS, note)
	}
	if fs.Summary.TruncatedBytes > 0 {
		fmt.Printf("  truncated trailing bytes: %d\n", fs.Summary.TruncatedBytes)
	}
}
