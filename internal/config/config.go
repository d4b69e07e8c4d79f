// Package config loads the flat environment-variable surface shared by the
// voicegateway and ttsservice binaries.
package config

import (
	"os"
	"strconv"
)

// Voice holds tuning for the per-session voice pipeline.
type Voice struct {
	ListenAddr string

	VADEnergyThreshold float64
	VADPeakThreshold   float64
	VADUseAndPolicy    bool

	SilenceThresholdSeconds float64
	KWSWindowSeconds        float64
	PreSpeechWindowSeconds  float64
	MinEnrollSeconds        float64
	SVThreshold             float64

	RequireWake  bool
	RequireSV    bool
	UseLLM       bool
	DisableLLM   bool
	DisableFunLM bool

	KWSURL        string
	VADModelURL   string
	ASRURL        string
	SVURL         string
	LLMCorrectURL string

	HotwordsPath      string
	HotwordsQdrantURL string
	HotwordsEmbedURL  string

	WavDumpDir       string
	AuditPostgresURL string
}

// TTS holds tuning for the job/segmentation/concatenation service.
type TTS struct {
	ListenAddr string

	TTSURL string

	SampleRate int
	BeamSize   int

	GeneralTargetChars int
	FirstTargetChars   int
	HardMaxChars       int

	PauseSoftMs int
	PauseHardMs int
	CrossfadeMs int

	BatchEnabled  bool
	BatchSize     int
	WorkerCount   int
	ModelLoadWait int // seconds
}

// LoadVoice reads Voice config from the environment.
func LoadVoice() Voice {
	return Voice{
		ListenAddr: envStr("VOICEGATEWAY_ADDR", ":8090"),

		VADEnergyThreshold: envFloat("VAD_ENERGY_THRESHOLD", 0.03),
		VADPeakThreshold:   envFloat("VAD_PEAK_THRESHOLD", 0.17),
		VADUseAndPolicy:    envBool("VAD_AND_POLICY", true),

		SilenceThresholdSeconds: envFloat("SILENCE_THRESHOLD_SECONDS", 2.0),
		KWSWindowSeconds:        envFloat("KWS_WINDOW_SECONDS", 1.6),
		PreSpeechWindowSeconds:  envFloat("PRE_SPEECH_WINDOW_SECONDS", 0.4),
		MinEnrollSeconds:        envFloat("MIN_ENROLL_SECONDS", 5.0),
		SVThreshold:             envFloat("SV_THRESHOLD", 0.40),

		RequireWake:  envBool("VOICE_REQUIRE_WAKE", true),
		RequireSV:    envBool("VOICE_REQUIRE_SV", true),
		UseLLM:       envBool("VOICE_USE_LLM", true),
		DisableLLM:   envBool("VOICE_DISABLE_LLM", false),
		DisableFunLM: envBool("FUNASR_DISABLE_LM", false),

		KWSURL:        envStr("KWS_URL", "http://localhost:9001"),
		VADModelURL:   envStr("VAD_MODEL_URL", "http://localhost:9002"),
		ASRURL:        envStr("ASR_URL", "http://localhost:9003"),
		SVURL:         envStr("SV_URL", "http://localhost:9004"),
		LLMCorrectURL: envStr("LLM_CORRECT_URL", "http://localhost:9005"),

		HotwordsPath:      envStr("HOTWORDS_PATH", "hotwords.txt"),
		HotwordsQdrantURL: envStr("HOTWORDS_QDRANT_URL", ""),
		HotwordsEmbedURL:  envStr("HOTWORDS_EMBED_URL", "http://localhost:11434"),

		WavDumpDir:       envStr("WAV_DUMP_DIR", "./dumps"),
		AuditPostgresURL: envStr("AUDIT_POSTGRES_URL", ""),
	}
}

// LoadTTS reads TTS config from the environment.
func LoadTTS() TTS {
	return TTS{
		ListenAddr: envStr("TTSSERVICE_ADDR", ":8091"),

		TTSURL: envStr("TTS_URL", "http://localhost:9006"),

		SampleRate: envInt("TTS_SAMPLE_RATE", 16000),
		BeamSize:   envInt("TTS_BEAM_SIZE", 1),

		GeneralTargetChars: envInt("TTS_SEGMENT_TARGET", 18),
		FirstTargetChars:   envInt("TTS_SEGMENT_FIRST_TARGET", 14),
		HardMaxChars:       envInt("TTS_SEGMENT_HARD_MAX", 22),

		PauseSoftMs: envInt("TTS_PAUSE_SOFT_MS", 120),
		PauseHardMs: envInt("TTS_PAUSE_HARD_MS", 200),
		CrossfadeMs: envInt("TTS_CROSSFADE_MS", 60),

		BatchEnabled:  envBool("TTS_BATCH_ENABLED", true),
		BatchSize:     envInt("TTS_BATCH_SIZE", 2),
		WorkerCount:   envInt("TTS_WORKER_COUNT", 2),
		ModelLoadWait: envInt("TTS_MODEL_LOAD_WAIT_SECONDS", 60),
	}
}

func envStr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
