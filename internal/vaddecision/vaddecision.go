// Package vaddecision combines a simple energy/peak threshold test with an
// opaque streaming VAD model to produce a per-chunk speech/silence decision.
package vaddecision

import "context"

// ModelStreamer is the narrow contract for the opaque streaming VAD model.
// Implementations must not panic; a call error is treated as "no speech".
type ModelStreamer interface {
	Stream(ctx context.Context, chunk []float32, cache *ModelCache, isFinal bool) (bool, error)
}

// ModelCache is opaque model state carried across calls for one session.
type ModelCache struct {
	State any
}

// Config holds the two energy/peak thresholds and the combination policy.
type Config struct {
	EnergyThreshold float64
	PeakThreshold   float64
	UseAndPolicy    bool // true: energy AND peak; false: energy OR peak
}

// Decide classifies one chunk: energy is the mean absolute sample value,
// peak is the maximum absolute sample value. The
// energy/peak test is combined with the streaming model result by a final
// logical OR regardless of the energy/peak policy.
func Decide(ctx context.Context, chunk []float32, cfg Config, model ModelStreamer, cache *ModelCache) (bool, error) {
	energy, peak := measure(chunk)

	var thresholdSpeech bool
	if cfg.UseAndPolicy {
		thresholdSpeech = energy > cfg.EnergyThreshold && peak > cfg.PeakThreshold
	} else {
		thresholdSpeech = energy > cfg.EnergyThreshold || peak > cfg.PeakThreshold
	}

	modelSpeech := false
	if model != nil {
		speech, err := model.Stream(ctx, chunk, cache, false)
		if err == nil {
			modelSpeech = speech
		}
	}

	return thresholdSpeech || modelSpeech, nil
}

func measure(chunk []float32) (energy, peak float64) {
	if len(chunk) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range chunk {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		sum += v
		if v > peak {
			peak = v
		}
	}
	energy = sum / float64(len(chunk))
	return energy, peak
}
