package models

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/vaddecision"
)

// VADModelClient is the opaque streaming VAD model HTTP client, satisfying
// vaddecision.ModelStreamer.
type VADModelClient struct {
	url    string
	client *http.Client
}

// NewVADModelClient creates a streaming VAD model client.
func NewVADModelClient(url string, poolSize int) *VADModelClient {
	return &VADModelClient{url: url, client: NewPooledHTTPClient(poolSize, 5*time.Second)}
}

var _ vaddecision.ModelStreamer = (*VADModelClient)(nil)

// Stream sends one chunk plus the chunk duration and interprets the
// response's "segments" array: non-empty means at least one speech segment
// was reported for this chunk.
func (c *VADModelClient) Stream(ctx context.Context, chunk []float32, cache *vaddecision.ModelCache, isFinal bool) (bool, error) {
	start := time.Now()
	wavBytes, err := audioio.EncodeWAV16(chunk, audioio.TargetSampleRate)
	if err != nil {
		return false, fmt.Errorf("encode vad chunk: %w", err)
	}

	chunkMs := strconv.Itoa(len(chunk) * 1000 / audioio.TargetSampleRate)
	fields := map[string]string{
		"chunk_ms": chunkMs,
		"is_final": strconv.FormatBool(isFinal),
	}
	body, contentType, err := buildMultipartAudio("audio", "chunk.wav", wavBytes, fields)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/stream", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create vad request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("vad_model", "http").Inc()
		return false, fmt.Errorf("vad request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("vad_model").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("vad_model", "status").Inc()
		return false, fmt.Errorf("vad status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read vad response: %w", err)
	}

	segments := gjson.GetBytes(raw, "segments")
	return segments.Exists() && segments.IsArray() && len(segments.Array()) > 0, nil
}
