package ttsseg

import (
	"testing"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
)

const testSampleRate = 16000

func mustWAV(t *testing.T, n int, value float32) []byte {
	t.Helper()
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}
	wav, err := audioio.EncodeWAV16(samples, testSampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV16: %v", err)
	}
	return wav
}

func TestConcatNoSegmentsErrors(t *testing.T) {
	if _, err := Concat(nil, nil, testSampleRate, PauseConfig{}); err == nil {
		t.Error("expected an error for zero segments")
	}
}

func TestConcatInsertsHardPauseAfterStrongBoundary(t *testing.T) {
	seg0 := mustWAV(t, 1000, 0.1)
	seg1 := mustWAV(t, 1000, 0.2)
	cfg := PauseConfig{SoftMs: 100, HardMs: 300, CrossfadeMs: 0}

	merged, err := Concat([][]byte{seg0, seg1}, []string{"头疼三天了。", "肚子也疼"}, testSampleRate, cfg)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}

	samples, err := audioio.DecodeWAV(merged)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	pauseSamples := msToSamples(cfg.HardMs, testSampleRate)
	want := 1000 + pauseSamples + 1000
	if len(samples) != want {
		t.Errorf("expected %d samples (hard pause after strong punctuation), got %d", want, len(samples))
	}
}

func TestConcatInsertsSoftPauseWithoutStrongBoundary(t *testing.T) {
	seg0 := mustWAV(t, 1000, 0.1)
	seg1 := mustWAV(t, 1000, 0.2)
	cfg := PauseConfig{SoftMs: 100, HardMs: 300, CrossfadeMs: 0}

	merged, err := Concat([][]byte{seg0, seg1}, []string{"头疼三天了，", "肚子也疼"}, testSampleRate, cfg)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}

	samples, err := audioio.DecodeWAV(merged)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	pauseSamples := msToSamples(cfg.SoftMs, testSampleRate)
	want := 1000 + pauseSamples + 1000
	if len(samples) != want {
		t.Errorf("expected %d samples (soft pause without strong punctuation), got %d", want, len(samples))
	}
}

func TestConcatCrossfadeShortensTotalLength(t *testing.T) {
	seg0 := mustWAV(t, 1000, 0.1)
	seg1 := mustWAV(t, 1000, 0.2)
	cfg := PauseConfig{SoftMs: 0, HardMs: 0, CrossfadeMs: 10} // 160 samples at 16kHz

	merged, err := Concat([][]byte{seg0, seg1}, []string{"头疼", "肚子疼"}, testSampleRate, cfg)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}

	samples, err := audioio.DecodeWAV(merged)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	// Crossfade overlaps fadeLen samples from each side rather than
	// appending them end-to-end, so the merged length is shorter than the
	// sum of the two segments by fadeLen.
	fadeLen := msToSamples(cfg.CrossfadeMs, testSampleRate)
	want := 1000 + 1000 - fadeLen
	if len(samples) != want {
		t.Errorf("expected %d samples after crossfade overlap, got %d", want, len(samples))
	}
}

func TestEndsWithStrongBoundary(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"头疼三天了。", true},
		{"头疼三天了！", true},
		{"头疼三天了？", true},
		{"头疼三天了，", false},
		{"头疼三天了", false},
		{"", false},
	}
	for _, c := range cases {
		if got := endsWithStrongBoundary(c.text); got != c.want {
			t.Errorf("endsWithStrongBoundary(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestAppendCrossfadedShortSegmentsShrinkFadeWindow(t *testing.T) {
	prev := []float32{0.1, 0.1}
	next := []float32{0.2, 0.2, 0.2}
	out := appendCrossfaded(prev, next, 10) // fadeLen longer than either side
	if len(out) != 3 {
		t.Fatalf("expected fade window clamped to the shorter side, total length 2+3-2 = 3, got %d", len(out))
	}
}
