package enroll

import (
	"testing"
	"time"
)

func TestAppendIgnoresChunksBeforeFirstSpeech(t *testing.T) {
	c := New(Config{MinEnrollSeconds: 5, TrailingSilenceSeconds: 1})
	now := time.Now()

	result := Append(c, make([]float32, 1600), false, now)
	if result.Accepted {
		t.Fatalf("did not expect acceptance before any speech")
	}
	if len(c.buffer) != 0 {
		t.Errorf("expected pre-speech silence to be dropped, buffer has %d samples", len(c.buffer))
	}
}

func TestAppendAcceptsAfterMinDurationAndTrailingSilence(t *testing.T) {
	c := New(Config{MinEnrollSeconds: 2, TrailingSilenceSeconds: 1})
	start := time.Now()

	Append(c, make([]float32, 1600), true, start)
	Append(c, make([]float32, 1600), true, start.Add(2100*time.Millisecond))

	result := Append(c, make([]float32, 1600), false, start.Add(3200*time.Millisecond))
	if !result.Accepted {
		t.Fatalf("expected acceptance once min duration and trailing silence elapsed")
	}
	if len(result.Sample) == 0 {
		t.Errorf("expected a non-empty enrollment sample")
	}
}

func TestAppendRejectsBeforeMinDuration(t *testing.T) {
	c := New(Config{MinEnrollSeconds: 5, TrailingSilenceSeconds: 1})
	start := time.Now()

	Append(c, make([]float32, 1600), true, start)
	result := Append(c, make([]float32, 1600), false, start.Add(2*time.Second))
	if result.Accepted {
		t.Errorf("expected no acceptance before min enroll duration elapses, even with silence")
	}
}

func TestAppendRejectsWithoutTrailingSilence(t *testing.T) {
	c := New(Config{MinEnrollSeconds: 1, TrailingSilenceSeconds: 2})
	start := time.Now()

	Append(c, make([]float32, 1600), true, start)
	result := Append(c, make([]float32, 1600), true, start.Add(1500*time.Millisecond))
	if result.Accepted {
		t.Errorf("expected no acceptance while speech is still ongoing (no trailing silence gap)")
	}
}

func TestResetClearsState(t *testing.T) {
	c := New(Config{MinEnrollSeconds: 1, TrailingSilenceSeconds: 1})
	Append(c, make([]float32, 1600), true, time.Now())
	Reset(c)

	if c.hasSpeech {
		t.Errorf("expected hasSpeech false after Reset")
	}
	if len(c.buffer) != 0 {
		t.Errorf("expected empty buffer after Reset")
	}
}
