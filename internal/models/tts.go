package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/sjson"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
)

// TTSParams are the per-call forward parameters sent with every synthesis
// request.
type TTSParams struct {
	BeamSize     int
	SamplingRate int
}

// TTSClient is the opaque TTS synthesis inferencer HTTP client.
type TTSClient struct {
	url    string
	client *http.Client
}

// NewTTSClient creates a TTS synthesis client.
func NewTTSClient(url string, poolSize int) *TTSClient {
	return &TTSClient{url: url, client: NewPooledHTTPClient(poolSize, 30*time.Second)}
}

// Synthesize converts one text segment to WAV bytes.
func (c *TTSClient) Synthesize(ctx context.Context, text, voice string, params TTSParams) ([]byte, error) {
	start := time.Now()

	reqBody, err := buildTTSBody("text", text, voice, params)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/synthesize", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("tts").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("tts", "status").Inc()
		return nil, fmt.Errorf("tts status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SynthesizeBatch submits multiple segments in one call when the backend
// supports list input. Callers fall back to per-segment Synthesize calls on
// a type-mismatch error.
func (c *TTSClient) SynthesizeBatch(ctx context.Context, texts []string, voice string, params TTSParams) ([][]byte, error) {
	start := time.Now()

	reqBody, err := buildTTSBody("texts", texts, voice, params)
	if err != nil {
		return nil, fmt.Errorf("build tts batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/synthesize_batch", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create tts batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return nil, fmt.Errorf("tts batch request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("tts").Observe(time.Since(start).Seconds())

	if resp.StatusCode == http.StatusNotImplemented {
		return nil, errBatchUnsupported
	}
	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("tts", "status").Inc()
		return nil, fmt.Errorf("tts batch status %d", resp.StatusCode)
	}

	var out ttsBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errBatchUnsupported
	}
	return out.Audios, nil
}

// Warmup pings the synthesis backend's health endpoint, forcing it to
// finish loading its model before the first real request arrives.
func (c *TTSClient) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/health", nil)
	if err != nil {
		return fmt.Errorf("create tts warmup request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts warmup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts warmup status %d", resp.StatusCode)
	}
	return nil
}

var errBatchUnsupported = fmt.Errorf("tts backend does not support batch synthesis")

// IsBatchUnsupported reports whether err indicates the backend cannot handle
// batched synthesis, so the caller should fall back to per-segment calls.
func IsBatchUnsupported(err error) bool {
	return err == errBatchUnsupported
}

// buildTTSBody assembles a synthesis request with sjson: the payload key
// carries either one text or a texts list, and voice is only present when
// the caller picked one.
func buildTTSBody(key string, value any, voice string, params TTSParams) ([]byte, error) {
	body, err := sjson.Set("", key, value)
	if err == nil && voice != "" {
		body, err = sjson.Set(body, "voice", voice)
	}
	if err == nil {
		body, err = sjson.Set(body, "forward_params.beam_size", params.BeamSize)
	}
	if err == nil {
		body, err = sjson.Set(body, "forward_params.sampling_rate", params.SamplingRate)
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

type ttsBatchResponse struct {
	Audios [][]byte `json:"audios"`
}
