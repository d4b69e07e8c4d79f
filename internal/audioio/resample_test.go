package audioio

import "testing"

func TestResampleSameRateIsPassthrough(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected passthrough length %d, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("index %d: expected %f, got %f", i, in[i], out[i])
		}
	}
}

func TestResampleUpsampleDoublesLength(t *testing.T) {
	in := make([]float32, 100)
	for i := range in {
		in[i] = float32(i) / 100
	}
	out := Resample(in, 8000, 16000)
	if len(out) != 200 {
		t.Errorf("expected 200 samples upsampling 8k->16k, got %d", len(out))
	}
}

func TestResampleDownsampleHalvesLength(t *testing.T) {
	in := make([]float32, 200)
	out := Resample(in, 16000, 8000)
	if len(out) != 100 {
		t.Errorf("expected 100 samples downsampling 16k->8k, got %d", len(out))
	}
}

func TestResampleEmptyInput(t *testing.T) {
	out := Resample(nil, 8000, 16000)
	if out != nil {
		t.Errorf("expected nil output for empty input, got %v", out)
	}
}
