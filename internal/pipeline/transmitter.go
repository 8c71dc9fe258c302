// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline drives the per-tick estimation loop and the asynchronous
// transmit engine behind it.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/pitch_computer/internal/telemetry"
)

// Transmitter owns the single transmit buffer and the serial writer. It is a
// two-state machine: Ready (the caller owns the buffer) and InFlight (a
// background transfer owns it). Ownership only ever transfers through Send
// and Wait, so the buffer has exactly one owner at any instant and no lock is
// needed. All methods must be called from the one goroutine running the tick
// loop.
type Transmitter struct {
	w   io.Writer
	buf []byte

	// inflight is non-nil exactly while a transfer owns the buffer; the
	// transfer signals completion on it. No cancellation: once started, the
	// only way back to Ready is waiting it out.
	inflight chan error

	tickPeriod time.Duration
	waitTotal  time.Duration
	overruns   int
	sent       int
}

// TxStats reports what the transmit engine observed. Overruns counts waits
// that exceeded the tick period; they are not errors, but they mean ticks are
// being delayed and the timing budget needs attention.
type TxStats struct {
	Sent      int
	Overruns  int
	WaitTotal time.Duration
}

// NewTransmitter wires a transmitter to w. tickPeriod is used only to flag
// overruns; pass 0 to disable the check.
func NewTransmitter(w io.Writer, tickPeriod time.Duration) *Transmitter {
	return &Transmitter{
		w:          w,
		buf:        make([]byte, telemetry.FrameSizeMax),
		tickPeriod: tickPeriod,
	}
}

// Send encodes f into the transmit buffer and starts an asynchronous
// transfer. If a previous transfer is still in flight it first waits for it
// to complete, reclaiming the buffer; the wait is bounded because the
// previous frame's byte count and the line rate are fixed. A failure of that
// previous transfer is reported, but the current frame is still sent: the
// link never retries, so the errored frame is superseded, not the new one.
func (t *Transmitter) Send(f telemetry.Frame) error {
	var prevErr error
	if err := t.Wait(); err != nil {
		prevErr = fmt.Errorf("transmit: previous transfer: %w", err)
	}

	// Buffer is exclusively ours between here and the goroutine start.
	n, err := telemetry.EncodeFrame(t.buf, f)
	if err != nil {
		return fmt.Errorf("transmit: encode: %w", err)
	}

	done := make(chan error, 1)
	t.inflight = done
	// Ownership of buf passes to the transfer; it must not be touched again
	// until the next Wait returns.
	go func(payload []byte) {
		_, err := t.w.Write(payload)
		done <- err
	}(t.buf[:n])

	t.sent++
	return prevErr
}

// Wait blocks until any in-flight transfer completes and returns its result,
// transitioning back to Ready. It is a no-op when already Ready.
func (t *Transmitter) Wait() error {
	if t.inflight == nil {
		return nil
	}
	start := time.Now()
	err := <-t.inflight
	t.inflight = nil

	d := time.Since(start)
	t.waitTotal += d
	if t.tickPeriod > 0 && d > t.tickPeriod {
		t.overruns++
	}
	return err
}

// InFlight reports whether a transfer currently owns the buffer.
func (t *Transmitter) InFlight() bool { return t.inflight != nil }

// Stats returns the accumulated transmit counters.
func (t *Transmitter) Stats() TxStats {
	return TxStats{Sent: t.sent, Overruns: t.overruns, WaitTotal: t.waitTotal}
}
