package pipeline

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relabs-tech/pitch_computer/internal/telemetry"
)

// enginePort models the asynchronous transmit engine: it holds the payload
// for a while, and checks that it is never handed two transfers at once and
// that the buffer contents do not change while it owns them.
type enginePort struct {
	t       *testing.T
	delay   time.Duration
	active  atomic.Int32
	mu      sync.Mutex
	written [][]byte
}

func (p *enginePort) Write(b []byte) (int, error) {
	if n := p.active.Add(1); n != 1 {
		p.t.Errorf("engine saw %d concurrent transfers, want 1", n)
	}
	snapshot := make([]byte, len(b))
	copy(snapshot, b)

	time.Sleep(p.delay)

	if !bytes.Equal(snapshot, b) {
		p.t.Error("buffer mutated while owned by the transmit engine")
	}
	p.active.Add(-1)

	p.mu.Lock()
	p.written = append(p.written, snapshot)
	p.mu.Unlock()
	return len(b), nil
}

func (p *enginePort) frames() []telemetry.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []telemetry.Frame
	for _, w := range p.written {
		if len(w) == 0 || w[len(w)-1] != telemetry.Delimiter {
			p.t.Fatalf("transfer does not end with delimiter: % X", w)
		}
		f, err := telemetry.DecodeFrame(w[:len(w)-1])
		if err != nil {
			p.t.Fatalf("transfer not decodable: %v", err)
		}
		out = append(out, f)
	}
	return out
}

func TestSendPreservesBufferExclusivity(t *testing.T) {
	port := &enginePort{t: t, delay: 2 * time.Millisecond}
	tx := NewTransmitter(port, 0)

	for i := 0; i < 50; i++ {
		f := telemetry.Frame{Gx: int16(i), Pitch: float32(i) / 2}
		if err := tx.Send(f); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		if !tx.InFlight() {
			t.Fatalf("Send %d: not InFlight after start", i)
		}
	}
	if err := tx.Wait(); err != nil {
		t.Fatalf("final Wait: %v", err)
	}
	if tx.InFlight() {
		t.Fatal("still InFlight after Wait")
	}

	frames := port.frames()
	if len(frames) != 50 {
		t.Fatalf("engine saw %d transfers, want 50", len(frames))
	}
	// Strict tick order: no reordering across transfers.
	for i, f := range frames {
		if f.Gx != int16(i) {
			t.Fatalf("transfer %d carries Gx=%d, frames reordered", i, f.Gx)
		}
	}
}

func TestWaitIsIdempotentWhenReady(t *testing.T) {
	tx := NewTransmitter(&enginePort{t: t}, 0)
	for i := 0; i < 3; i++ {
		if err := tx.Wait(); err != nil {
			t.Fatalf("Wait on Ready transmitter: %v", err)
		}
	}
}

func TestInterleavedSendAndWait(t *testing.T) {
	port := &enginePort{t: t, delay: time.Millisecond}
	tx := NewTransmitter(port, 0)

	// Arbitrary send/wait interleavings must keep the single-owner
	// invariant; the instrumented port reports any violation.
	seq := []byte("swssww sws ssw w")
	n := 0
	for _, op := range seq {
		switch op {
		case 's':
			if err := tx.Send(telemetry.Frame{Gx: int16(n)}); err != nil {
				t.Fatalf("Send: %v", err)
			}
			n++
		case 'w':
			if err := tx.Wait(); err != nil {
				t.Fatalf("Wait: %v", err)
			}
		}
	}
	if err := tx.Wait(); err != nil {
		t.Fatalf("final Wait: %v", err)
	}
	if got := len(port.frames()); got != n {
		t.Fatalf("engine saw %d transfers, want %d", got, n)
	}
}

type failingPort struct{}

func (failingPort) Write([]byte) (int, error) { return 0, errors.New("line down") }

// countingFailPort fails every transfer but records how many it was handed.
type countingFailPort struct {
	writes atomic.Int32
}

func (p *countingFailPort) Write([]byte) (int, error) {
	p.writes.Add(1)
	return 0, errors.New("line down")
}

func TestWriteErrorSurfacesOnReclaim(t *testing.T) {
	tx := NewTransmitter(failingPort{}, 0)

	// Starting the transfer succeeds; the failure belongs to the in-flight
	// transfer and surfaces when the buffer is reclaimed.
	if err := tx.Send(telemetry.Frame{}); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := tx.Send(telemetry.Frame{}); err == nil {
		t.Fatal("second Send did not surface the previous transfer's error")
	}
}

func TestSendStillTransmitsAfterPriorFailure(t *testing.T) {
	// A dead line must not halve the frame rate: a Send that surfaces the
	// previous transfer's failure still owes the line its own frame.
	port := &countingFailPort{}
	tx := NewTransmitter(port, 0)

	for i := 0; i < 5; i++ {
		err := tx.Send(telemetry.Frame{Gx: int16(i)})
		if i == 0 && err != nil {
			t.Fatalf("first Send: %v", err)
		}
		if i > 0 && err == nil {
			t.Fatalf("Send %d did not surface the previous transfer's error", i)
		}
		if !tx.InFlight() {
			t.Fatalf("Send %d: no transfer started", i)
		}
	}
	if err := tx.Wait(); err == nil {
		t.Fatal("final Wait did not surface the last transfer's error")
	}

	if got := port.writes.Load(); got != 5 {
		t.Fatalf("line saw %d transfers, want 5", got)
	}
}

func TestOverrunCounting(t *testing.T) {
	port := &enginePort{t: t, delay: 5 * time.Millisecond}
	tx := NewTransmitter(port, time.Millisecond) // tick budget far below the transfer time

	for i := 0; i < 3; i++ {
		if err := tx.Send(telemetry.Frame{}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if err := tx.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	stats := tx.Stats()
	if stats.Sent != 3 {
		t.Errorf("Sent = %d, want 3", stats.Sent)
	}
	// Every reclaim after the first Send had to ride out a 5ms transfer.
	if stats.Overruns < 2 {
		t.Errorf("Overruns = %d, want at least 2", stats.Overruns)
	}
	if stats.WaitTotal <= 0 {
		t.Errorf("WaitTotal = %v, want > 0", stats.WaitTotal)
	}
}
