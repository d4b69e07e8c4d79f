package kws

import (
	"context"
	"errors"
	"testing"
)

type stubDetector struct {
	text string
	err  error
}

func (s stubDetector) Detect(ctx context.Context, window []float32, cache *Cache) (string, error) {
	return s.text, s.err
}

func chunkOf(n int) []float32 {
	return make([]float32, n)
}

func TestAppendNotEvaluatedUntilWindowFills(t *testing.T) {
	buf := NewBuffer(1.6) // 1.6s * 16000 = 25600 samples
	result, err := Append(context.Background(), buf, chunkOf(8000), stubDetector{text: "wake up"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if result.Evaluated {
		t.Errorf("expected window not yet evaluated after a partial chunk")
	}
}

func TestAppendDetectsWakeOnceWindowFull(t *testing.T) {
	buf := NewBuffer(1.0) // 16000 samples
	result, err := Append(context.Background(), buf, chunkOf(16000), stubDetector{text: "  wake up  "})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !result.Evaluated {
		t.Fatalf("expected the full window to be evaluated")
	}
	if !result.Woke {
		t.Errorf("expected wake detection to succeed")
	}
	if result.Text != "wake up" {
		t.Errorf("expected trimmed text 'wake up', got %q", result.Text)
	}
	if len(result.Window) != 16000 {
		t.Errorf("expected window snapshot of 16000 samples, got %d", len(result.Window))
	}
}

func TestAppendRejectedSentinelIsNotWoke(t *testing.T) {
	buf := NewBuffer(1.0)
	result, err := Append(context.Background(), buf, chunkOf(16000), stubDetector{text: "rejected"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !result.Evaluated {
		t.Fatalf("expected window to be evaluated")
	}
	if result.Woke {
		t.Errorf("expected the 'rejected' sentinel to not count as a wake")
	}
}

func TestAppendEmptyTextIsNotWoke(t *testing.T) {
	buf := NewBuffer(1.0)
	result, err := Append(context.Background(), buf, chunkOf(16000), stubDetector{text: "   "})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if result.Woke {
		t.Errorf("expected blank text to not count as a wake")
	}
}

func TestAppendDetectorErrorClearsAndPropagates(t *testing.T) {
	buf := NewBuffer(1.0)
	boom := errors.New("inference failed")
	result, err := Append(context.Background(), buf, chunkOf(16000), stubDetector{err: boom})
	if err == nil {
		t.Fatalf("expected detector error to propagate")
	}
	if !result.Evaluated {
		t.Errorf("expected Evaluated true even on error, so callers don't mistake it for a filling window")
	}
	if len(buf.samples) != 0 {
		t.Errorf("expected window cleared after a detect error")
	}
}

func TestAppendSlidesWindowFIFO(t *testing.T) {
	buf := NewBuffer(1.0) // 16000 samples
	// Fill most of the window, then push past capacity; only the most
	// recent windowSamples should be retained.
	if _, err := Append(context.Background(), buf, chunkOf(10000), stubDetector{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	res, err := Append(context.Background(), buf, chunkOf(10000), stubDetector{text: "ok"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(res.Window) != 16000 {
		t.Errorf("expected the evaluated window trimmed to the most recent 16000 samples, got %d", len(res.Window))
	}
	if len(buf.samples) != 0 {
		t.Errorf("expected buffer cleared after the window filled and was evaluated")
	}
}

func TestClearResetsBuffer(t *testing.T) {
	buf := NewBuffer(1.0)
	buf.samples = chunkOf(100)
	Clear(buf)
	if len(buf.samples) != 0 {
		t.Errorf("expected Clear to empty the sample buffer")
	}
}
