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

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
)

// Sentence is one recognized segment with speaker attribution, as returned
// by the speaker-separation-and-ASR inferencer.
type Sentence struct {
	Text      string
	StartMs   int
	EndMs     int
	SpeakerID string
}

// ASRClient is the opaque speaker-separation+ASR inferencer HTTP client.
type ASRClient struct {
	url    string
	client *http.Client
}

// NewASRClient creates an ASR+speaker-separation client.
func NewASRClient(url string, poolSize int) *ASRClient {
	return &ASRClient{url: url, client: NewPooledHTTPClient(poolSize, 60*time.Second)}
}

// Transcribe runs speaker-separation-and-ASR over a finalized utterance WAV,
// returning sentences grouped implicitly by speakerId. A missing speaker_id
// field surfaces as an empty SpeakerID; the gate rejects such transcripts as
// empty results rather than guessing an attribution.
func (c *ASRClient) Transcribe(ctx context.Context, wavBytes []byte, batchSize int) ([]Sentence, error) {
	start := time.Now()

	fields := map[string]string{"batch_size": strconv.Itoa(batchSize)}
	body, contentType, err := buildMultipartAudio("audio", "utterance.wav", wavBytes, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create asr request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return nil, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	metrics.StageDuration.WithLabelValues("asr").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return nil, fmt.Errorf("asr status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asr response: %w", err)
	}

	var sentences []Sentence
	gjson.GetBytes(raw, "sentences").ForEach(func(_, entry gjson.Result) bool {
		speaker := ""
		if s := entry.Get("speaker_id"); s.Exists() {
			speaker = s.String()
		}
		sentences = append(sentences, Sentence{
			Text:      entry.Get("text").String(),
			StartMs:   int(entry.Get("start_ms").Int()),
			EndMs:     int(entry.Get("end_ms").Int()),
			SpeakerID: speaker,
		})
		return true
	})
	return sentences, nil
}
