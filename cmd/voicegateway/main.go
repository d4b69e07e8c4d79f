// Command voicegateway runs the per-session voice pipeline service: wake
// detection, speaker enrollment, streaming ASR endpointing, speaker
// verification, and text correction, over a WebSocket transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/asrbuf"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audit"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/config"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/enroll"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/hotwords"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/models"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/session"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/svgate"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/textcorrect"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/vaddecision"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/wsvoice"
)

const httpPoolSize = 32

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.LoadVoice()

	wakeClient := models.NewWakeClient(cfg.KWSURL, httpPoolSize)
	vadModel := models.NewVADModelClient(cfg.VADModelURL, httpPoolSize)
	asrClient := models.NewASRClient(cfg.ASRURL, httpPoolSize)
	svClient := models.NewSVClient(cfg.SVURL, httpPoolSize)
	gate := svgate.New(asrClient, svClient, cfg.SVThreshold)

	corrector := textcorrect.New(newLLMCorrector(cfg), newHotwordLookup(cfg))

	dumper := audit.NewDumper(cfg.WavDumpDir)

	var auditStore *audit.Store
	if cfg.AuditPostgresURL != "" {
		var err error
		auditStore, err = audit.Open(context.Background(), cfg.AuditPostgresURL)
		if err != nil {
			slog.Error("audit store open failed, continuing without audit trail", "error", err)
		} else {
			slog.Info("audit trail enabled")
			defer auditStore.Close()
		}
	}

	sessionCfg := session.Config{
		VAD: vaddecision.Config{
			EnergyThreshold: cfg.VADEnergyThreshold,
			PeakThreshold:   cfg.VADPeakThreshold,
			UseAndPolicy:    cfg.VADUseAndPolicy,
		},
		Enroll: enroll.Config{
			MinEnrollSeconds:       cfg.MinEnrollSeconds,
			TrailingSilenceSeconds: cfg.SilenceThresholdSeconds,
		},
		ASRBuf: asrbuf.Config{
			PreSpeechWindowSeconds:  cfg.PreSpeechWindowSeconds,
			SilenceThresholdSeconds: cfg.SilenceThresholdSeconds,
			TailChunks:              2,
		},

		KWSWindowSeconds: cfg.KWSWindowSeconds,
		SVThreshold:      cfg.SVThreshold,

		UseWake: cfg.RequireWake,
		UseSV:   cfg.RequireSV,
		UseLLM:  cfg.UseLLM && !cfg.DisableLLM,
	}

	newSession := func() *session.Session {
		var tracer *audit.Tracer
		if auditStore != nil {
			tracer = audit.NewTracer(context.Background(), auditStore, uuid.NewString())
		}
		return session.New(sessionCfg, wakeClient, vadModel, gate, corrector, dumper, tracer)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws/voice", wsvoice.NewHandler(newSession))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go awaitShutdown(srv)

	slog.Info("voicegateway starting", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("voicegateway stopped")
}

func awaitShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// llmCorrectorAdapter bridges models.LLMCorrectClient's CorrectResult shape
// to the textcorrect.LLMCorrector contract, keeping textcorrect's only
// dependency direction inward.
type llmCorrectorAdapter struct {
	client *models.LLMCorrectClient
}

func (a llmCorrectorAdapter) Correct(ctx context.Context, text string, hotwords []string) (textcorrect.Correction, error) {
	result, err := a.client.Correct(ctx, text, hotwords)
	if err != nil {
		return textcorrect.Correction{}, err
	}
	return textcorrect.Correction{Corrected: result.Corrected, Changed: result.Changed}, nil
}

func newLLMCorrector(cfg config.Voice) textcorrect.LLMCorrector {
	if cfg.DisableLLM || cfg.LLMCorrectURL == "" {
		return nil
	}
	provider := agents.NewOpenAIProvider(agents.OpenAIProviderParams{
		BaseURL:      param.NewOpt(cfg.LLMCorrectURL + "/v1/"),
		APIKey:       param.NewOpt("none"),
		UseResponses: param.NewOpt(false),
	})
	return llmCorrectorAdapter{client: models.NewLLMCorrectClient(provider, "text-corrector", 512)}
}

func newHotwordLookup(cfg config.Voice) *hotwords.Lookup {
	static := hotwords.Load(cfg.HotwordsPath)
	if cfg.HotwordsQdrantURL == "" {
		return hotwords.NewLookup(static, nil, nil, 5)
	}
	embedder := hotwords.NewEmbeddingClient(cfg.HotwordsEmbedURL, "nomic-embed-text", httpPoolSize)
	qdrant := hotwords.NewQdrantClient(cfg.HotwordsQdrantURL, httpPoolSize)
	return hotwords.NewLookup(static, embedder, qdrant, 5)
}
