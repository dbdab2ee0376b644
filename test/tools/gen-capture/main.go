// Command gen-capture synthesizes AudioTee capture files for manual
// testing of extract-streams and capture-inspect. Packets from the system
// and microphone streams are interleaved pseudo-randomly with increasing
// timestamps; the file can optionally end with a truncated partial packet
// or include packets on a reserved stream ID.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/mrzilvis/audiotee/capture"
)

func main() {
	outFlag := flag.String("out", "capture.bin", "Output capture file")
	systemFlag := flag.Int("system", 100, "Number of system audio packets")
	micFlag := flag.Int("mic", 100, "Number of microphone packets")
	unknownFlag := flag.Int("unknown", 0, "Number of packets on a reserved stream ID")
	minFlag := flag.Int("min-payload", 256, "Minimum payload size in bytes")
	maxFlag := flag.Int("max-payload", 4096, "Maximum payload size in bytes")
	seedFlag := flag.Int64("seed", 1, "Interleaving and payload RNG seed")
	truncFlag := flag.Int("truncate", 0, "Trailing bytes of a partial final packet to append")
	flag.Parse()

	if *minFlag <= 0 || *maxFlag < *minFlag {
		fmt.Fprintf(os.Stderr, "gen-capture: invalid payload size range %d-%d\n", *minFlag, *maxFlag)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seedFlag))

	// Build the interleaving: one entry per packet, shuffled.
	ids := make([]uint8, 0, *systemFlag+*micFlag+*unknownFlag)
	for i := 0; i < *systemFlag; i++ {
		ids = append(ids, capture.StreamSystem)
	}
	for i := 0; i < *micFlag; i++ {
		ids = append(ids, capture.StreamMicrophone)
	}
	for i := 0; i < *unknownFlag; i++ {
		ids = append(ids, 0xEE)
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	var buf []byte
	ts := uint64(1000)
	for _, id := range ids {
		size := *minFlag + rng.Intn(*maxFlag-*minFlag+1)
		payload := make([]byte, size)
		rng.Read(payload)
		buf = capture.AppendPacket(buf, id, ts, payload)
		ts += 10_000 // 10ms of capture per packet
	}

	if *truncFlag > 0 {
		partial := capture.AppendPacket(nil, capture.StreamSystem, ts, make([]byte, *maxFlag))
		if *truncFlag < len(partial) {
			partial = partial[:*truncFlag]
		}
		buf = append(buf, partial...)
	}

	if err := os.WriteFile(*outFlag, buf, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "gen-capture: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d packets (%d bytes) to %s\n", len(ids), len(buf), *outFlag)
}
