package demux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mrzilvis/audiotee/capture"
)

// threePackets is the canonical interleaved fixture: two system packets
// around one microphone packet.
func threePackets() []byte {
	var buf []byte
	buf = capture.AppendPacket(buf, capture.StreamSystem, 1000, []byte("AAAA"))
	buf = capture.AppendPacket(buf, capture.StreamMicrophone, 2000, []byte("BBB"))
	buf = capture.AppendPacket(buf, capture.StreamSystem, 3000, []byte("CC"))
	return buf
}

func runBoth(t *testing.T, input []byte) (*Demuxer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var system, mic bytes.Buffer
	d := NewDemuxer(bytes.NewReader(input), nil)
	d.Route(capture.StreamSystem, &system)
	d.Route(capture.StreamMicrophone, &mic)
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	return d, &system, &mic
}

func TestRun_RoundTrip(t *testing.T) {
	t.Parallel()
	d, system, mic := runBoth(t, threePackets())

	if got := system.String(); got != "AAAACC" {
		t.Errorf("system output = %q, want %q", got, "AAAACC")
	}
	if got := mic.String(); got != "BBB" {
		t.Errorf("mic output = %q, want %q", got, "BBB")
	}
	if n := d.PacketCount(capture.StreamSystem); n != 2 {
		t.Errorf("system packets = %d, want 2", n)
	}
	if n := d.PacketCount(capture.StreamMicrophone); n != 1 {
		t.Errorf("mic packets = %d, want 1", n)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()
	d, system, mic := runBoth(t, nil)
	if system.Len() != 0 || mic.Len() != 0 {
		t.Error("outputs should be empty")
	}
	if d.PacketCount(capture.StreamSystem) != 0 || d.PacketCount(capture.StreamMicrophone) != 0 {
		t.Error("counts should be zero")
	}
}

func TestRun_ZeroLengthPayload(t *testing.T) {
	t.Parallel()
	input := capture.AppendPacket(nil, capture.StreamSystem, 1000, nil)
	d, system, _ := runBoth(t, input)
	if system.Len() != 0 {
		t.Errorf("system output = %d bytes, want 0", system.Len())
	}
	if n := d.PacketCount(capture.StreamSystem); n != 1 {
		t.Errorf("system packets = %d, want 1", n)
	}
}

func TestRun_Interleaving(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))

	var input, wantSystem, wantMic []byte
	var totalPayload uint64
	for i := 0; i < 200; i++ {
		payload := make([]byte, 1+rng.Intn(64))
		rng.Read(payload)
		id := capture.StreamSystem
		if rng.Intn(2) == 1 {
			id = capture.StreamMicrophone
			wantMic = append(wantMic, payload...)
		} else {
			wantSystem = append(wantSystem, payload...)
		}
		input = capture.AppendPacket(input, id, uint64(i)*1000, payload)
		totalPayload += uint64(len(payload))
	}

	d, system, mic := runBoth(t, input)
	if !bytes.Equal(system.Bytes(), wantSystem) {
		t.Error("system output is not the in-order concatenation of system payloads")
	}
	if !bytes.Equal(mic.Bytes(), wantMic) {
		t.Error("mic output is not the in-order concatenation of mic payloads")
	}

	counts := d.Counts()
	droppedPackets, droppedBytes := d.Dropped()
	written := counts[capture.StreamSystem].Bytes + counts[capture.StreamMicrophone].Bytes
	if written+droppedBytes != totalPayload {
		t.Errorf("byte conservation: written %d + dropped %d != total %d", written, droppedBytes, totalPayload)
	}
	if droppedPackets != 0 {
		t.Errorf("dropped packets = %d, want 0", droppedPackets)
	}
}

func TestRun_TruncatedTrailingPacket(t *testing.T) {
	t.Parallel()
	base := threePackets()
	extra := capture.AppendPacket(nil, capture.StreamSystem, 4000, []byte("ZZZZZZZZ"))

	tests := []struct {
		name  string
		extra []byte
	}{
		{"no_extra", nil},
		{"header_then_nothing", extra[:capture.HeaderSize]},
		{"short_payload", extra[:capture.HeaderSize+3]},
	}
	// Partial headers of every possible length behave the same way.
	for n := 1; n < capture.HeaderSize; n++ {
		tests = append(tests, struct {
			name  string
			extra []byte
		}{fmt.Sprintf("partial_header_%d", n), extra[:n]})
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := append(append([]byte(nil), base...), tc.extra...)
			d, system, mic := runBoth(t, input)

			if got := system.String(); got != "AAAACC" {
				t.Errorf("system output = %q, want %q", got, "AAAACC")
			}
			if got := mic.String(); got != "BBB" {
				t.Errorf("mic output = %q, want %q", got, "BBB")
			}
			if d.PacketCount(capture.StreamSystem) != 2 || d.PacketCount(capture.StreamMicrophone) != 1 {
				t.Error("counts changed under trailing truncation")
			}
		})
	}
}

func TestRun_OversizedDeclaredLength(t *testing.T) {
	t.Parallel()
	// Declared size far larger than the remaining file: the short payload
	// read terminates the run like any other truncation.
	var input []byte
	input = capture.AppendPacket(input, capture.StreamSystem, 1000, []byte("AAAA"))
	input = append(input, capture.StreamMicrophone)
	input = append(input, 0xD0, 0x07, 0, 0, 0, 0, 0, 0) // ts 2000
	input = append(input, 0x40, 0x42, 0x0F, 0x00)       // size 1000000
	input = append(input, "only a few bytes"...)

	d, system, mic := runBoth(t, input)
	if got := system.String(); got != "AAAA" {
		t.Errorf("system output = %q, want %q", got, "AAAA")
	}
	if mic.Len() != 0 {
		t.Errorf("mic output = %d bytes, want 0", mic.Len())
	}
	if d.PacketCount(capture.StreamMicrophone) != 0 {
		t.Error("truncated packet must not be counted")
	}
}

func TestRun_UnroutableStreamDropped(t *testing.T) {
	t.Parallel()
	var input []byte
	input = capture.AppendPacket(input, capture.StreamSystem, 1000, []byte("AAAA"))
	input = capture.AppendPacket(input, 7, 1500, []byte("DROPPED"))
	input = capture.AppendPacket(input, capture.StreamMicrophone, 2000, []byte("BBB"))

	d, system, mic := runBoth(t, input)
	if got := system.String(); got != "AAAA" {
		t.Errorf("system output = %q, want %q", got, "AAAA")
	}
	if got := mic.String(); got != "BBB" {
		t.Errorf("mic output = %q, want %q", got, "BBB")
	}
	droppedPackets, droppedBytes := d.Dropped()
	if droppedPackets != 1 || droppedBytes != 7 {
		t.Errorf("dropped = %d packets / %d bytes, want 1 / 7", droppedPackets, droppedBytes)
	}
}

func TestRun_SelectiveRouting(t *testing.T) {
	t.Parallel()
	var system bytes.Buffer
	d := NewDemuxer(bytes.NewReader(threePackets()), nil)
	d.Route(capture.StreamSystem, &system)
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := system.String(); got != "AAAACC" {
		t.Errorf("system output = %q, want %q", got, "AAAACC")
	}
	if n := d.PacketCount(capture.StreamMicrophone); n != 0 {
		t.Errorf("mic packets = %d, want 0", n)
	}
	droppedPackets, droppedBytes := d.Dropped()
	if droppedPackets != 1 || droppedBytes != 3 {
		t.Errorf("dropped = %d packets / %d bytes, want 1 / 3", droppedPackets, droppedBytes)
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_SinkWriteErrorIsFatal(t *testing.T) {
	t.Parallel()
	d := NewDemuxer(bytes.NewReader(threePackets()), nil)
	d.Route(capture.StreamSystem, failWriter{})
	err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected write error to abort the run")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var system bytes.Buffer
	d := NewDemuxer(bytes.NewReader(threePackets()), nil)
	d.Route(capture.StreamSystem, &system)
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if system.Len() != 0 {
		t.Error("no payload should be written after cancellation")
	}
}
