package models

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
)

// VerifyResult is the discriminated record returned by the speaker
// verification inferencer: Score is nil when the model declines to score.
type VerifyResult struct {
	Verdict string
	Score   *float64
}

// SVClient is the opaque speaker-verification inferencer HTTP client.
type SVClient struct {
	url    string
	client *http.Client
}

// NewSVClient creates a speaker-verification client.
func NewSVClient(url string, poolSize int) *SVClient {
	return &SVClient{url: url, client: NewPooledHTTPClient(poolSize, 15*time.Second)}
}

// Verify compares an enrolled reference WAV against a candidate speaker WAV.
func (c *SVClient) Verify(ctx context.Context, enrollWAV, speakerWAV []byte) (VerifyResult, error) {
	start := time.Now()

	var buf bytes.Buffer
	w := multipartWriter(&buf)
	if err := writeFilePart(w, "enroll_audio", "enroll.wav", enrollWAV); err != nil {
		return VerifyResult{}, err
	}
	if err := writeFilePart(w, "speaker_audio", "speaker.wav", speakerWAV); err != nil {
		return VerifyResult{}, err
	}
	contentType := w.FormDataContentType()
	if err := w.Close(); err != nil {
		return VerifyResult{}, fmt.Errorf("close sv multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/verify", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("create sv request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("sv", "http").Inc()
		return VerifyResult{}, fmt.Errorf("sv request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("sv").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("sv", "status").Inc()
		return VerifyResult{}, fmt.Errorf("sv status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("read sv response: %w", err)
	}

	result := gjson.ParseBytes(raw)
	out := VerifyResult{}
	if v := result.Get("verdict"); v.Exists() {
		out.Verdict = v.String()
	}
	if s := result.Get("score"); s.Exists() && s.Type != gjson.Null {
		score := s.Float()
		out.Score = &score
	}
	return out, nil
}
