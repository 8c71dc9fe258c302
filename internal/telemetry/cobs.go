// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"errors"
	"fmt"
)

// Consistent-overhead byte stuffing. The encoded output contains no zero
// bytes, so a single 0x00 on the wire unambiguously separates frames.

// ErrBufferTooSmall is returned when the destination cannot hold the
// worst-case stuffed output.
var ErrBufferTooSmall = errors.New("telemetry: destination buffer too small")

// StuffedSizeMax returns the worst-case stuffed length for n payload bytes:
// one overhead byte per started run of 254.
func StuffedSizeMax(n int) int {
	return n + n/254 + 1
}

// Stuff encodes src into dst and returns the number of bytes written.
// dst must be able to hold StuffedSizeMax(len(src)) bytes.
func Stuff(dst, src []byte) (int, error) {
	if len(dst) < StuffedSizeMax(len(src)) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, StuffedSizeMax(len(src)), len(dst))
	}

	codeIdx := 0
	n := 1
	code := byte(1)

	finishRun := func() {
		dst[codeIdx] = code
		codeIdx = n
		n++
		code = 1
	}

	for _, b := range src {
		if b == 0 {
			finishRun()
			continue
		}
		dst[n] = b
		n++
		code++
		if code == 0xFF {
			finishRun()
		}
	}
	dst[codeIdx] = code
	return n, nil
}

// Unstuff decodes a stuffed block (without the trailing delimiter) and
// returns the original payload.
func Unstuff(src []byte) ([]byte, error) {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		code := src[i]
		if code == 0 {
			return nil, errors.New("telemetry: zero byte inside stuffed block")
		}
		i++
		run := int(code) - 1
		if i+run > len(src) {
			return nil, errors.New("telemetry: truncated stuffed block")
		}
		for _, b := range src[i : i+run] {
			if b == 0 {
				return nil, errors.New("telemetry: zero byte inside stuffed block")
			}
			dst = append(dst, b)
		}
		i += run
		// A non-maximal run implies an encoded zero, except at end of input.
		if code != 0xFF && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}
