// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry implements the wire format of the pitch stream: a
// fixed-layout little-endian payload, a CRC-16/ARC trailer, and COBS byte
// stuffing so frames are self-delimiting on the serial line.
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// PayloadSize is the data portion: ay, az, gx as i16 LE plus the pitch
	// estimate as f32 LE.
	PayloadSize = 10
	// BlockSize is the payload plus the 16-bit checksum.
	BlockSize = PayloadSize + 2
	// FrameSizeMax is the worst-case encoded frame: the stuffed block plus
	// the trailing delimiter. This is the transmit buffer capacity.
	FrameSizeMax = BlockSize + 1 + 1
	// Delimiter separates frames on the wire; stuffing guarantees it cannot
	// appear inside an encoded frame.
	Delimiter = 0x00
)

var (
	ErrBadChecksum = errors.New("telemetry: frame checksum mismatch")
	ErrBadLength   = errors.New("telemetry: unexpected frame length")
)

// Frame is one telemetry record: the raw sensor values of a tick and the
// estimator output for that same tick.
type Frame struct {
	Ay    int16   `json:"ay"`
	Az    int16   `json:"az"`
	Gx    int16   `json:"gx"`
	Pitch float32 `json:"pitch"` // degrees
}

// EncodeFrame writes the stuffed frame plus delimiter into dst and returns
// the encoded length. dst must hold at least FrameSizeMax bytes; a smaller
// buffer is a configuration error and is reported, never truncated.
func EncodeFrame(dst []byte, f Frame) (int, error) {
	if len(dst) < FrameSizeMax {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, FrameSizeMax, len(dst))
	}

	var block [BlockSize]byte
	binary.LittleEndian.PutUint16(block[0:2], uint16(f.Ay))
	binary.LittleEndian.PutUint16(block[2:4], uint16(f.Az))
	binary.LittleEndian.PutUint16(block[4:6], uint16(f.Gx))
	binary.LittleEndian.PutUint32(block[6:10], math.Float32bits(f.Pitch))

	// Checksum covers the payload bytes only, never itself.
	crc := Checksum(block[:PayloadSize])
	binary.LittleEndian.PutUint16(block[PayloadSize:], crc)

	n, err := Stuff(dst, block[:])
	if err != nil {
		return 0, err
	}
	dst[n] = Delimiter
	return n + 1, nil
}

// DecodeFrame destuffs one encoded frame (without its trailing delimiter),
// verifies length and checksum, and unpacks the record.
func DecodeFrame(encoded []byte) (Frame, error) {
	block, err := Unstuff(encoded)
	if err != nil {
		return Frame{}, err
	}
	if len(block) != BlockSize {
		return Frame{}, fmt.Errorf("%w: got %d, want %d", ErrBadLength, len(block), BlockSize)
	}

	want := binary.LittleEndian.Uint16(block[PayloadSize:])
	if got := Checksum(block[:PayloadSize]); got != want {
		return Frame{}, fmt.Errorf("%w: computed 0x%04X, embedded 0x%04X", ErrBadChecksum, got, want)
	}

	return Frame{
		Ay:    int16(binary.LittleEndian.Uint16(block[0:2])),
		Az:    int16(binary.LittleEndian.Uint16(block[2:4])),
		Gx:    int16(binary.LittleEndian.Uint16(block[4:6])),
		Pitch: math.Float32frombits(binary.LittleEndian.Uint32(block[6:10])),
	}, nil
}
