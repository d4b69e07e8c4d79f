// Package kws implements the window-based keyword-spotting wake detector.
// Every incoming chunk is accumulated into a fixed-duration sliding
// window; once the window fills, the whole window is handed to the opaque
// wake inferencer, making detection insensitive to chunk boundaries.
package kws

import (
	"context"
	"strings"
)

// Detector is the narrow contract for the opaque wake-word inferencer.
type Detector interface {
	Detect(ctx context.Context, window []float32, cache *Cache) (text string, err error)
}

// Cache carries opaque model state; it is cleared before every detect call
// (detection is always isFinal=true, no streaming state survives across
// windows).
type Cache struct {
	State any
}

// Buffer is the sliding window for one session.
type Buffer struct {
	windowSamples int
	samples       []float32
	cache         Cache
}

// NewBuffer creates a sliding window sized to windowSeconds at 16 kHz.
func NewBuffer(windowSeconds float64) *Buffer {
	return &Buffer{windowSamples: int(windowSeconds * 16000)}
}

// Result reports a wake decision for the chunk just appended. Window holds
// a snapshot of the samples that triggered detection, for audit persistence.
// Evaluated is false while the window is still filling: no detect call was
// made and Woke carries no meaning.
type Result struct {
	Evaluated bool
	Woke      bool
	Text      string
	Window    []float32
}

// Append adds a chunk to the window, retaining only the most recent
// windowSamples via FIFO trim, and runs detection once the window is full.
func Append(ctx context.Context, buf *Buffer, chunk []float32, detector Detector) (Result, error) {
	buf.samples = append(buf.samples, chunk...)
	if len(buf.samples) > buf.windowSamples {
		buf.samples = buf.samples[len(buf.samples)-buf.windowSamples:]
	}
	if len(buf.samples) < buf.windowSamples {
		return Result{}, nil
	}

	window := make([]float32, len(buf.samples))
	copy(window, buf.samples)

	text, err := detector.Detect(ctx, buf.samples, &buf.cache)
	buf.cache = Cache{}
	if err != nil {
		Clear(buf)
		return Result{Evaluated: true}, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "rejected" {
		Clear(buf)
		return Result{Evaluated: true, Woke: false}, nil
	}

	Clear(buf)
	return Result{Evaluated: true, Woke: true, Text: trimmed, Window: window}, nil
}

// Clear resets the window and cache, used both on wake and on reject.
func Clear(buf *Buffer) {
	buf.samples = nil
	buf.cache = Cache{}
}
