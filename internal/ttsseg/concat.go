package ttsseg

import (
	"fmt"
	"strings"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
)

// PauseConfig carries the inter-segment pause and crossfade durations, in
// milliseconds, used by Concat.
type PauseConfig struct {
	SoftMs      int
	HardMs      int
	CrossfadeMs int
}

// Concat joins synthesized WAV segments into one utterance, inserting a
// pause at each boundary (a longer pause when the preceding segment's text
// ends with strong punctuation or a newline, a shorter one otherwise) and
// crossfading across the boundary so the pause doesn't click. segmentTexts
// must be parallel to segmentWAVs; it decides which pause length applies.
func Concat(segmentWAVs [][]byte, segmentTexts []string, sampleRate int, cfg PauseConfig) ([]byte, error) {
	if len(segmentWAVs) == 0 {
		return nil, fmt.Errorf("concat: no segments")
	}

	samples, err := audioio.DecodeWAV(segmentWAVs[0])
	if err != nil {
		return nil, fmt.Errorf("concat: decode segment 0: %w", err)
	}

	crossfadeSamples := msToSamples(cfg.CrossfadeMs, sampleRate)

	for i := 1; i < len(segmentWAVs); i++ {
		next, err := audioio.DecodeWAV(segmentWAVs[i])
		if err != nil {
			return nil, fmt.Errorf("concat: decode segment %d: %w", i, err)
		}

		pauseMs := cfg.SoftMs
		if endsWithStrongBoundary(segmentTexts[i-1]) {
			pauseMs = cfg.HardMs
		}
		pause := make([]float32, msToSamples(pauseMs, sampleRate))

		samples = append(samples, pause...)
		samples = appendCrossfaded(samples, next, crossfadeSamples)
	}

	return audioio.EncodeWAV16(samples, sampleRate)
}

func endsWithStrongBoundary(text string) bool {
	t := strings.TrimRight(text, " \t")
	if t == "" {
		return false
	}
	r := []rune(t)
	last := r[len(r)-1]
	switch last {
	case '。', '！', '？', '；', '\n':
		return true
	default:
		return false
	}
}

func msToSamples(ms, sampleRate int) int {
	if ms <= 0 {
		return 0
	}
	return ms * sampleRate / 1000
}

// appendCrossfaded appends next to prev, linearly crossfading the last
// fadeLen samples of prev against the first fadeLen samples of next. When
// either side is shorter than fadeLen, the fade window shrinks to fit and
// the remainder of next is appended untouched.
func appendCrossfaded(prev, next []float32, fadeLen int) []float32 {
	if fadeLen <= 0 || len(prev) == 0 || len(next) == 0 {
		return append(prev, next...)
	}
	if fadeLen > len(prev) {
		fadeLen = len(prev)
	}
	if fadeLen > len(next) {
		fadeLen = len(next)
	}

	tailStart := len(prev) - fadeLen
	denom := float32(fadeLen - 1)
	if denom == 0 {
		denom = 1
	}
	for i := 0; i < fadeLen; i++ {
		frac := float32(i) / denom
		prev[tailStart+i] = prev[tailStart+i]*(1-frac) + next[i]*frac
	}
	return append(prev, next[fadeLen:]...)
}
