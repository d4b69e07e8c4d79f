// Package audioio decodes and encodes the WAV containers exchanged with
// clients and with the opaque model backends. Every internal buffer is
// 16 kHz mono float32 samples in [-1, 1].
package audioio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const TargetSampleRate = 16000

// DecodeBase64WAV decodes a base64-encoded WAV container of any supported
// bit depth/channel count/sample rate into 16 kHz mono float32 samples.
func DecodeBase64WAV(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return DecodeWAV(raw)
}

// DecodeWAV parses a raw WAV container into 16 kHz mono float32 samples.
func DecodeWAV(raw []byte) ([]float32, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("decode wav: missing format chunk")
	}

	samples := pcmToFloat32(buf)
	mono := downmix(samples, buf.Format.NumChannels)
	return Resample(mono, buf.Format.SampleRate, TargetSampleRate), nil
}

// pcmToFloat32 converts an IntBuffer's samples to float32 in [-1, 1] for
// 8/16/24/32-bit PCM.
func pcmToFloat32(buf *audio.IntBuffer) []float32 {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	out := make([]float32, len(buf.Data))
	switch depth {
	case 8:
		// WAV 8-bit PCM is unsigned, offset-binary with a 128 bias.
		for i, v := range buf.Data {
			out[i] = (float32(v) - 128) / 128
		}
	default:
		fullScale := float32(int64(1) << uint(depth-1))
		for i, v := range buf.Data {
			out[i] = float32(v) / fullScale
		}
	}
	return out
}

// downmix averages interleaved channel samples into a single mono channel.
func downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	n := len(samples) / channels
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// EncodeWAV16 writes mono float32 samples as a 16 kHz, 16-bit little-endian
// PCM WAV container. Samples are clamped to [-1, 1] before quantization; no
// normalization or AGC is applied so measured peak is preserved.
func EncodeWAV16(samples []float32, sampleRate int) ([]byte, error) {
	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(clampAndQuantize(s))
	}

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return buf.data, nil
}

// seekableBuffer is an in-memory io.WriteSeeker, needed because wav.Encoder
// seeks back to patch chunk sizes after writing sample data.
type seekableBuffer struct {
	data []byte
	pos  int64
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		b.data = append(b.data, make([]byte, end-int64(len(b.data)))...)
	}
	n := copy(b.data[b.pos:end], p)
	b.pos = end
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = b.pos + offset
	case io.SeekEnd:
		newPos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("seekableBuffer: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seekableBuffer: negative position")
	}
	b.pos = newPos
	return newPos, nil
}

func clampAndQuantize(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * 32767))
}
