package svgate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/models"
)

func TestDurationToBatchSize(t *testing.T) {
	cases := []struct {
		seconds float64
		want    int
	}{
		{10, 60},
		{29.9, 60},
		{30, 120},
		{59.9, 120},
		{60, 300},
		{120, 300},
	}
	for _, c := range cases {
		samples := make([]float32, int(c.seconds*float64(audioio.TargetSampleRate)))
		if got := durationToBatchSize(samples, audioio.TargetSampleRate); got != c.want {
			t.Errorf("duration %.1fs: expected batch size %d, got %d", c.seconds, c.want, got)
		}
	}
}

func TestGroupBySpeakerSplitsOnLargeGap(t *testing.T) {
	sentences := []models.Sentence{
		{Text: "a", StartMs: 0, EndMs: 500, SpeakerID: "spk0"},
		{Text: "b", StartMs: 600, EndMs: 1000, SpeakerID: "spk0"},
		{Text: "c", StartMs: 2500, EndMs: 3000, SpeakerID: "spk0"}, // gap 1500ms > 800ms
	}
	groups := groupBySpeaker(sentences)
	if len(groups) != 2 {
		t.Fatalf("expected a large inter-sentence gap to split into 2 synthetic groups, got %d", len(groups))
	}
}

func TestGroupBySpeakerKeepsCloseSentencesTogether(t *testing.T) {
	sentences := []models.Sentence{
		{Text: "a", StartMs: 0, EndMs: 500, SpeakerID: "spk0"},
		{Text: "b", StartMs: 600, EndMs: 1000, SpeakerID: "spk0"}, // gap 100ms
	}
	groups := groupBySpeaker(sentences)
	if len(groups) != 1 {
		t.Fatalf("expected close sentences to stay in one group, got %d groups", len(groups))
	}
	if concatText(groups[0]) != "ab" {
		t.Errorf("expected concatenated text 'ab', got %q", concatText(groups[0]))
	}
}

func TestGroupBySpeakerSeparatesDistinctSpeakers(t *testing.T) {
	sentences := []models.Sentence{
		{Text: "a", StartMs: 0, EndMs: 500, SpeakerID: "spk0"},
		{Text: "b", StartMs: 0, EndMs: 500, SpeakerID: "spk1"},
	}
	groups := groupBySpeaker(sentences)
	if len(groups) != 2 {
		t.Fatalf("expected 2 distinct speaker groups, got %d", len(groups))
	}
}

// --- Gate.Run integration tests against stub HTTP backends ---

func newStubASRServer(t *testing.T, sentences []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sentences": sentences})
	}))
}

func newStubSVServer(t *testing.T, verdict string, score *float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"verdict": verdict}
		if score != nil {
			resp["score"] = *score
		} else {
			resp["score"] = nil
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func scoreOf(v float64) *float64 { return &v }

func TestGateRunEmptyASRResult(t *testing.T) {
	asrSrv := newStubASRServer(t, nil)
	defer asrSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient("http://unused", 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	_, err := gate.Run(context.Background(), utterance, Options{SVEnabled: false, IsEnrolled: false})
	if err != ErrEmpty {
		t.Fatalf("expected ErrEmpty for a transcript with no sentences, got %v", err)
	}
}

func TestGateRunMissingSpeakerIDsReturnsEmpty(t *testing.T) {
	asrSrv := newStubASRServer(t, []map[string]any{
		{"text": "hello", "start_ms": 0, "end_ms": 500},
		{"text": "world", "start_ms": 600, "end_ms": 1000},
	})
	defer asrSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient("http://unused", 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	_, err := gate.Run(context.Background(), utterance, Options{SVEnabled: false})
	if err != ErrEmpty {
		t.Fatalf("expected ErrEmpty when no sentence carries a speaker id, got %v", err)
	}
}

func TestGateRunSVDisabledConcatsAllGroups(t *testing.T) {
	asrSrv := newStubASRServer(t, []map[string]any{
		{"text": "hello ", "start_ms": 0, "end_ms": 500, "speaker_id": "spk0"},
		{"text": "world", "start_ms": 600, "end_ms": 1000, "speaker_id": "spk0"},
	})
	defer asrSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient("http://unused", 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	text, err := gate.Run(context.Background(), utterance, Options{SVEnabled: false})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected 'hello world', got %q", text)
	}
}

func TestGateRunEnrolledNotActivatedRefuses(t *testing.T) {
	asrSrv := newStubASRServer(t, []map[string]any{
		{"text": "hi", "start_ms": 0, "end_ms": 200, "speaker_id": "spk0"},
	})
	defer asrSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient("http://unused", 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	_, err := gate.Run(context.Background(), utterance, Options{SVEnabled: true, IsEnrolled: true, IsActivated: false})
	if err != ErrNotActivated {
		t.Fatalf("expected ErrNotActivated, got %v", err)
	}
}

func TestGateRunVerifiesAndPassesAboveThreshold(t *testing.T) {
	asrSrv := newStubASRServer(t, []map[string]any{
		{"text": "hello", "start_ms": 0, "end_ms": 200, "speaker_id": "spk0"},
	})
	defer asrSrv.Close()
	svSrv := newStubSVServer(t, "yes", scoreOf(0.8))
	defer svSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient(svSrv.URL, 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	text, err := gate.Run(context.Background(), utterance, Options{
		SVEnabled: true, IsEnrolled: true, IsActivated: true, EnrollWAV: []byte("fake-wav"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected 'hello', got %q", text)
	}
}

func TestGateRunVerifiesAndFailsBelowThreshold(t *testing.T) {
	asrSrv := newStubASRServer(t, []map[string]any{
		{"text": "hello", "start_ms": 0, "end_ms": 200, "speaker_id": "spk0"},
	})
	defer asrSrv.Close()
	svSrv := newStubSVServer(t, "no", scoreOf(0.1))
	defer svSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient(svSrv.URL, 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	_, err := gate.Run(context.Background(), utterance, Options{
		SVEnabled: true, IsEnrolled: true, IsActivated: true, EnrollWAV: []byte("fake-wav"),
	})
	if err != ErrSVFailed {
		t.Fatalf("expected ErrSVFailed below threshold, got %v", err)
	}
}

func TestGateRunVerdictBreaksTieAtExactThreshold(t *testing.T) {
	cases := []struct {
		verdict  string
		wantPass bool
	}{
		{"yes", true},
		{"no", false},
	}
	for _, c := range cases {
		asrSrv := newStubASRServer(t, []map[string]any{
			{"text": "hello", "start_ms": 0, "end_ms": 200, "speaker_id": "spk0"},
		})
		svSrv := newStubSVServer(t, c.verdict, scoreOf(0.4))

		gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient(svSrv.URL, 1), 0.4)
		utterance := make([]float32, audioio.TargetSampleRate)

		text, err := gate.Run(context.Background(), utterance, Options{
			SVEnabled: true, IsEnrolled: true, IsActivated: true, EnrollWAV: []byte("fake-wav"),
		})
		if c.wantPass {
			if err != nil || text != "hello" {
				t.Errorf("verdict %q at exact threshold: expected pass, got text=%q err=%v", c.verdict, text, err)
			}
		} else if err != ErrSVFailed {
			t.Errorf("verdict %q at exact threshold: expected ErrSVFailed, got %v", c.verdict, err)
		}

		asrSrv.Close()
		svSrv.Close()
	}
}

func TestGateRunTranscribeError(t *testing.T) {
	asrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer asrSrv.Close()

	gate := New(models.NewASRClient(asrSrv.URL, 1), models.NewSVClient("http://unused", 1), 0.4)
	utterance := make([]float32, audioio.TargetSampleRate)

	if _, err := gate.Run(context.Background(), utterance, Options{}); err == nil {
		t.Fatalf("expected an error when the ASR backend returns a non-200 status")
	} else if err == ErrEmpty {
		t.Fatalf("expected a transport error, not the empty-result sentinel: %v", err)
	}
}
