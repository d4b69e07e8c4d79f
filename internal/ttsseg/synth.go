package ttsseg

import (
	"context"
	"fmt"
	"time"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/config"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/models"
)

// Synthesizer is the opaque TTS inferencer contract Run needs; satisfied by
// *models.TTSClient.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, params models.TTSParams) ([]byte, error)
	SynthesizeBatch(ctx context.Context, texts []string, voice string, params models.TTSParams) ([][]byte, error)
}

// Result is the outcome of synthesizing and concatenating one utterance,
// carrying the per-segment and overall real-time factor (elapsed synthesis
// time divided by produced audio duration) so callers can report it.
type Result struct {
	WAV            []byte
	Segments       []string
	SegmentRTF     []float64
	OverallRTF     float64
	AudioDurationS float64
}

// ErrCancelled is returned when the caller's cancelled callback reports true
// between segments.
var ErrCancelled = fmt.Errorf("tts: cancelled")

// Run splits text into segments, synthesizes each (batching where the
// backend supports it, falling back to per-segment calls otherwise), and
// concatenates the results into one utterance. cancelled is polled between
// segments so a long synthesis can be aborted promptly; pass a function that
// always returns false to disable cancellation.
func Run(ctx context.Context, synth Synthesizer, text, voice string, cfg config.TTS, cancelled func() bool) (Result, error) {
	segments := Split(text, Limits{
		Target:      cfg.GeneralTargetChars,
		FirstTarget: cfg.FirstTargetChars,
		HardMax:     cfg.HardMaxChars,
	})
	if len(segments) == 0 {
		return Result{}, fmt.Errorf("tts: empty text after normalization")
	}

	params := models.TTSParams{BeamSize: cfg.BeamSize, SamplingRate: cfg.SampleRate}

	wavs, elapsed, err := synthesizeAll(ctx, synth, segments, voice, params, cfg, cancelled)
	if err != nil {
		return Result{}, err
	}

	segRTF := make([]float64, len(wavs))
	var totalElapsed, totalAudio float64
	for i, w := range wavs {
		samples, derr := audioio.DecodeWAV(w)
		dur := 0.0
		if derr == nil && cfg.SampleRate > 0 {
			dur = float64(len(samples)) / float64(cfg.SampleRate)
		}
		if dur > 0 {
			segRTF[i] = elapsed[i].Seconds() / dur
		}
		totalElapsed += elapsed[i].Seconds()
		totalAudio += dur
	}

	merged, err := Concat(wavs, segments, cfg.SampleRate, PauseConfig{
		SoftMs:      cfg.PauseSoftMs,
		HardMs:      cfg.PauseHardMs,
		CrossfadeMs: cfg.CrossfadeMs,
	})
	if err != nil {
		return Result{}, fmt.Errorf("tts: concat: %w", err)
	}

	overall := 0.0
	if totalAudio > 0 {
		overall = totalElapsed / totalAudio
	}

	return Result{
		WAV:            merged,
		Segments:       segments,
		SegmentRTF:     segRTF,
		OverallRTF:     overall,
		AudioDurationS: totalAudio,
	}, nil
}

func synthesizeAll(ctx context.Context, synth Synthesizer, segments []string, voice string, params models.TTSParams, cfg config.TTS, cancelled func() bool) ([][]byte, []time.Duration, error) {
	wavs := make([][]byte, 0, len(segments))
	elapsed := make([]time.Duration, 0, len(segments))

	if cfg.BatchEnabled && cfg.BatchSize > 1 {
		batched, err := synthesizeBatched(ctx, synth, segments, voice, params, cfg, cancelled)
		if err == nil {
			return batched.wavs, batched.elapsed, nil
		}
		if !models.IsBatchUnsupported(err) {
			return nil, nil, err
		}
		// fall through to per-segment synthesis
	}

	for i, seg := range segments {
		if cancelled != nil && cancelled() {
			return nil, nil, ErrCancelled
		}
		start := time.Now()
		w, err := synth.Synthesize(ctx, seg, voice, params)
		if err != nil {
			return nil, nil, fmt.Errorf("tts: synthesize segment %d: %w", i, err)
		}
		wavs = append(wavs, w)
		elapsed = append(elapsed, time.Since(start))
	}
	return wavs, elapsed, nil
}

type batchedResult struct {
	wavs    [][]byte
	elapsed []time.Duration
}

func synthesizeBatched(ctx context.Context, synth Synthesizer, segments []string, voice string, params models.TTSParams, cfg config.TTS, cancelled func() bool) (batchedResult, error) {
	var out batchedResult
	for i := 0; i < len(segments); i += cfg.BatchSize {
		if cancelled != nil && cancelled() {
			return batchedResult{}, ErrCancelled
		}
		end := i + cfg.BatchSize
		if end > len(segments) {
			end = len(segments)
		}
		batch := segments[i:end]

		start := time.Now()
		wavs, err := synth.SynthesizeBatch(ctx, batch, voice, params)
		if err != nil {
			return batchedResult{}, err
		}
		if len(wavs) != len(batch) {
			return batchedResult{}, fmt.Errorf("tts: batch returned %d audios for %d segments", len(wavs), len(batch))
		}
		// The backend doesn't report per-segment timing for a batched call,
		// so the batch's elapsed time is spread evenly across its segments.
		per := time.Since(start) / time.Duration(len(batch))
		for _, w := range wavs {
			out.wavs = append(out.wavs, w)
			out.elapsed = append(out.elapsed, per)
		}
	}
	return out, nil
}
