// Package metrics exposes the process's Prometheus gauges, counters, and
// histograms for the voice pipeline and the TTS job service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_sessions_active",
		Help: "Currently open voice sessions",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_sessions_total",
		Help: "Total voice sessions opened",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_stage_duration_seconds",
		Help:    "Per-component latency (kws, vad, asr, sv, llm_correct, tts)",
		Buckets: []float64{0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_errors_total",
		Help: "Error counts by stage and error type",
	}, []string{"stage", "error_type"})

	AudioChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_audio_chunks_total",
		Help: "Total audio chunks received across all sessions",
	})

	VADSpeechSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_vad_speech_segments_total",
		Help: "Chunks classified as speech by the VAD decision",
	})

	KWSWakeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_kws_wake_total",
		Help: "Wake-word detections",
	})

	KWSRejectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_kws_reject_total",
		Help: "Wake-window evaluations that did not wake",
	})

	EnrollmentCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_enrollment_completed_total",
		Help: "Speaker enrollments accepted",
	})

	SVOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_sv_outcome_total",
		Help: "Speaker verification outcomes",
	}, []string{"outcome"}) // pass, fail, not_activated, empty

	FinalizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_finalize_total",
		Help: "Utterance finalize outcomes",
	}, []string{"outcome"}) // success, sv_failed, empty, error

	TTSJobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tts_jobs_active",
		Help: "TTS jobs currently pending or processing",
	})

	TTSJobStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_job_status_total",
		Help: "TTS jobs by terminal status",
	}, []string{"status"}) // completed, cancelled, error

	TTSSegmentRTF = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_segment_rtf",
		Help:    "Per-segment real-time factor (wall seconds / audio seconds)",
		Buckets: []float64{0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 1.5, 2.0},
	})

	TTSSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_segments_total",
		Help: "Total TTS segments synthesized",
	})

	HotwordsLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hotwords_lookup_duration_seconds",
		Help:    "Hotword vector-search latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2},
	})
)
