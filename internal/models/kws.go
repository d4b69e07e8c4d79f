package models

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/kws"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
)

// WakeClient is the opaque wake-word inferencer HTTP client, satisfying
// kws.Detector.
type WakeClient struct {
	url    string
	client *http.Client
}

// NewWakeClient creates a wake-detector client.
func NewWakeClient(url string, poolSize int) *WakeClient {
	return &WakeClient{url: url, client: NewPooledHTTPClient(poolSize, 5*time.Second)}
}

var _ kws.Detector = (*WakeClient)(nil)

// Detect sends the full detection window as a WAV file and interprets the
// response as a discriminated record: absence of "text" means no wake.
func (c *WakeClient) Detect(ctx context.Context, window []float32, _ *kws.Cache) (string, error) {
	start := time.Now()
	wavBytes, err := audioio.EncodeWAV16(window, audioio.TargetSampleRate)
	if err != nil {
		return "", fmt.Errorf("encode kws window: %w", err)
	}

	body, contentType, err := buildMultipartAudio("audio", "window.wav", wavBytes, nil)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/detect", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create kws request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("kws", "http").Inc()
		return "", fmt.Errorf("kws request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("kws").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("kws", "status").Inc()
		return "", fmt.Errorf("kws status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read kws response: %w", err)
	}

	result := gjson.ParseBytes(raw)
	textField := result.Get("text")
	if !textField.Exists() {
		return "", nil
	}
	return textField.String(), nil
}
