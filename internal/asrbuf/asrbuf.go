// Package asrbuf implements the ASR endpointer and buffer: a
// pre-speech protection window, a fixed 2-chunk silence tail margin, and a
// 2-second silence finalize predicate.
package asrbuf

import "time"

// Config holds the endpointing thresholds.
type Config struct {
	PreSpeechWindowSeconds  float64
	SilenceThresholdSeconds float64
	TailChunks              int // max trailing silence chunks accumulated
}

// Buffer holds per-session ASR buffering state.
type Buffer struct {
	cfg Config

	preSpeechMaxSamples int
	preSpeech           []float32

	asr []float32

	hasDetectedSpeech bool
	silenceChunkCount int
	lastVoice         time.Time
}

// New creates an ASR buffer for one session. sampleRate is the rate of the
// chunks that will be appended (16000 per the codec's contract).
func New(cfg Config, sampleRate int) *Buffer {
	if cfg.TailChunks <= 0 {
		cfg.TailChunks = 2
	}
	return &Buffer{
		cfg:                 cfg,
		preSpeechMaxSamples: int(cfg.PreSpeechWindowSeconds * float64(sampleRate)),
	}
}

// Result reports per-chunk state after Append.
type Result struct {
	SilenceSeconds float64
	ShouldFinalize bool
}

// Append processes one chunk given its VAD speech decision and the current
// monotonic time.
func Append(b *Buffer, chunk []float32, isSpeech bool, now time.Time) Result {
	if isSpeech {
		b.silenceChunkCount = 0
		b.hasDetectedSpeech = true
		b.lastVoice = now

		if len(b.preSpeech) > 0 {
			b.asr = append(b.asr, b.preSpeech...)
			b.preSpeech = nil
		}
		b.asr = append(b.asr, chunk...)
		return Result{SilenceSeconds: 0}
	}

	if b.hasDetectedSpeech {
		if b.silenceChunkCount < b.cfg.TailChunks {
			b.asr = append(b.asr, chunk...)
		}
		b.silenceChunkCount++
	} else {
		b.preSpeech = appendCapped(b.preSpeech, chunk, b.preSpeechMaxSamples)
	}

	silence := 0.0
	if b.hasDetectedSpeech {
		silence = now.Sub(b.lastVoice).Seconds()
	}

	shouldFinalize := b.hasDetectedSpeech && len(b.asr) > 0 && silence >= b.cfg.SilenceThresholdSeconds
	return Result{SilenceSeconds: silence, ShouldFinalize: shouldFinalize}
}

// appendCapped appends data to buf, retaining only the most recent maxLen
// samples (FIFO trim), matching the 0.4s pre-speech window cap.
func appendCapped(buf, data []float32, maxLen int) []float32 {
	buf = append(buf, data...)
	if len(buf) > maxLen {
		buf = buf[len(buf)-maxLen:]
	}
	return buf
}

// Finalize returns the accumulated utterance audio and resets ASR state
// (but not mode/activation/enrollment, which the session FSM owns).
func Finalize(b *Buffer) []float32 {
	audio := b.asr
	b.asr = nil
	b.preSpeech = nil
	b.hasDetectedSpeech = false
	b.silenceChunkCount = 0
	b.lastVoice = time.Time{}
	return audio
}

// Len reports the current accumulated utterance length in samples.
func Len(b *Buffer) int {
	return len(b.asr)
}

// HasDetectedSpeech reports whether speech has been seen since the last
// finalize/reset.
func HasDetectedSpeech(b *Buffer) bool {
	return b.hasDetectedSpeech
}
