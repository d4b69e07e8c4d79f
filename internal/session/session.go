// Package session implements the per-connection voice session state machine:
// four modes, routing each incoming chunk to the keyword spotter, the
// enrollment capturer, or the ASR endpointer, and running the
// speaker-verification gate plus text corrector on finalize.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/asrbuf"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/enroll"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/kws"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/svgate"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/textcorrect"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/vaddecision"
)

// Mode is one of the four session states.
type Mode int

const (
	WaitingForWakeup Mode = iota
	WaitingForEnrollment
	WaitingForEnrollmentConfirm
	AsrActive
)

func (m Mode) String() string {
	switch m {
	case WaitingForWakeup:
		return "WaitingForWakeup"
	case WaitingForEnrollment:
		return "WaitingForEnrollment"
	case WaitingForEnrollmentConfirm:
		return "WaitingForEnrollmentConfirm"
	case AsrActive:
		return "AsrActive"
	default:
		return "Unknown"
	}
}

// Reserved result sentinels and their user-facing messages.
const (
	svVerificationFailedMsg = "抱歉，请再说一遍！"
	svNotActivatedMsg       = "非认证注册声音，拒绝访问。"
	asrResultEmptyMsg       = "抱歉，请再说一遍！"
)

// Event is one typed reply the transport layer serializes to the client.
type Event struct {
	Type             string
	Status           string
	Message          string
	Text             string
	Success          bool
	IntermediateText string
	Code             string
}

// Persister saves debug/audit artifacts; all methods are best-effort and
// their failure never affects session state. A nil Persister disables
// persistence entirely.
type Persister interface {
	SaveWAV(kind string, wavBytes []byte)
}

// Tracer records per-stage timing and outcome for the audit trail. A nil
// Tracer disables span recording entirely. Implementations must be nil-safe
// and non-blocking on the hot path, matching audit.Tracer.
type Tracer interface {
	RecordSpan(stage string, startedAt time.Time, status, errMsg string)
}

// Config bundles the tunables every sub-component needs.
type Config struct {
	VAD    vaddecision.Config
	Enroll enroll.Config
	ASRBuf asrbuf.Config

	KWSWindowSeconds float64
	SVThreshold      float64

	UseWake bool
	UseSV   bool
	UseLLM  bool
}

// Session holds all per-connection state for the voice pipeline.
type Session struct {
	cfg Config

	mode        Mode
	useWake     bool
	useSV       bool
	useLLM      bool
	isActivated bool
	isEnrolled  bool
	enrollWAV   []byte

	kwsBuf    *kws.Buffer
	enrollCap *enroll.Capture
	asrBuf    *asrbuf.Buffer
	vadCache  *vaddecision.ModelCache

	wakeDetector kws.Detector
	vadModel     vaddecision.ModelStreamer
	gate         *svgate.Gate
	corrector    *textcorrect.Corrector

	persist Persister
	trace   Tracer
}

// New creates a session. useLLM is forced false whenever cfg.UseLLM is
// false, modeling the global disable-LLM configuration override. trace may
// be nil, in which case span recording is skipped.
func New(cfg Config, wakeDetector kws.Detector, vadModel vaddecision.ModelStreamer, gate *svgate.Gate, corrector *textcorrect.Corrector, persist Persister, trace Tracer) *Session {
	s := &Session{
		cfg:          cfg,
		useWake:      cfg.UseWake,
		useSV:        cfg.UseSV,
		useLLM:       cfg.UseLLM,
		wakeDetector: wakeDetector,
		vadModel:     vadModel,
		gate:         gate,
		corrector:    corrector,
		persist:      persist,
		trace:        trace,
	}
	s.resetAllState()
	if !s.useWake {
		s.mode = AsrActive
	}
	metrics.SessionsActive.Inc()
	metrics.SessionsTotal.Inc()
	return s
}

// Mode reports the session's current FSM state.
func (s *Session) Mode() Mode { return s.mode }

// UseWake reports whether wake detection is currently required.
func (s *Session) UseWake() bool { return s.useWake }

func (s *Session) resetKWS() {
	s.kwsBuf = kws.NewBuffer(s.cfg.KWSWindowSeconds)
}

func (s *Session) resetEnrollment() {
	s.enrollCap = enroll.New(s.cfg.Enroll)
	s.isEnrolled = false
	s.enrollWAV = nil
}

func (s *Session) resetASR() {
	s.asrBuf = asrbuf.New(s.cfg.ASRBuf, audioio.TargetSampleRate)
	s.vadCache = &vaddecision.ModelCache{}
}

func (s *Session) resetAllState() {
	s.mode = WaitingForWakeup
	s.isActivated = false
	s.resetKWS()
	s.resetEnrollment()
	s.resetASR()
}

// HandleControl processes a control message and returns the resulting
// event(s). kind is one of "start_asr", "cancel_enrollment",
// "end_conversation".
func (s *Session) HandleControl(kind string) []Event {
	switch kind {
	case "end_conversation":
		s.resetAllState()
		return []Event{{Type: "status", Status: "conversation_ended", Message: "conversation ended"}}

	case "cancel_enrollment":
		s.useWake = true
		s.resetAllState()
		return []Event{{Type: "status", Status: "enrollment_cancelled", Message: "enrollment cancelled"}}

	case "start_asr":
		if s.mode != WaitingForEnrollment && s.mode != WaitingForEnrollmentConfirm {
			return nil
		}
		s.mode = AsrActive
		s.resetASR()
		return []Event{{Type: "status", Status: "asr_started", Message: "asr started"}}

	default:
		return nil
	}
}

// SetUseWake updates the wake-required flag; toggling it on while
// AsrActive forces the session back to WaitingForWakeup.
func (s *Session) SetUseWake(v bool) {
	s.useWake = v
	if v && s.mode == AsrActive {
		s.isActivated = false
		s.mode = WaitingForWakeup
		s.resetKWS()
	}
	if !v {
		s.mode = AsrActive
	}
}

// SetUseSV updates the SV-required flag; disabling it clears enrollment.
func (s *Session) SetUseSV(v bool) {
	s.useSV = v
	if !v {
		s.resetEnrollment()
	}
}

// SetUseLLM updates the LLM-correction flag, subject to the global
// disable-LLM override supplied at construction.
func (s *Session) SetUseLLM(v bool) {
	if !s.cfg.UseLLM {
		s.useLLM = false
		return
	}
	s.useLLM = v
}

// ProcessChunk routes one decoded 16 kHz mono float32 chunk per the FSM
// transitions and returns zero or more resulting events. Decode failures
// must be handled by the caller before this is invoked; a malformed chunk
// never reaches session state.
func (s *Session) ProcessChunk(ctx context.Context, chunk []float32) []Event {
	metrics.AudioChunksTotal.Inc()

	switch s.mode {
	case WaitingForWakeup:
		return s.handleWakeup(ctx, chunk)
	case WaitingForEnrollment:
		return s.handleEnrollment(ctx, chunk)
	case WaitingForEnrollmentConfirm:
		return nil
	case AsrActive:
		return s.handleAsrActive(ctx, chunk)
	default:
		return nil
	}
}

func (s *Session) handleWakeup(ctx context.Context, chunk []float32) []Event {
	result, err := kws.Append(ctx, s.kwsBuf, chunk, s.wakeDetector)
	if err != nil {
		metrics.Errors.WithLabelValues("kws", "detect").Inc()
		return nil
	}
	if !result.Evaluated {
		return nil
	}
	if !result.Woke {
		metrics.KWSRejectTotal.Inc()
		// A stale activation flag with a failed detection means the
		// previous lifecycle never reset cleanly; force-clear it.
		s.isActivated = false
		return nil
	}

	metrics.KWSWakeTotal.Inc()
	if s.persist != nil && len(result.Window) > 0 {
		if wav, encErr := audioio.EncodeWAV16(result.Window, audioio.TargetSampleRate); encErr == nil {
			s.persist.SaveWAV("kws", wav)
		}
	}

	s.isActivated = true
	s.resetASR()
	s.mode = WaitingForEnrollment
	return []Event{{Type: "wakeup", Status: "activated", Message: "wake word detected"}}
}

func (s *Session) handleEnrollment(ctx context.Context, chunk []float32) []Event {
	isSpeech, err := vaddecision.Decide(ctx, chunk, s.cfg.VAD, s.vadModel, s.vadCache)
	if err != nil {
		isSpeech = false
	}

	result := enroll.Append(s.enrollCap, chunk, isSpeech, time.Now())
	if !result.Accepted {
		return nil
	}

	wav, err := audioio.EncodeWAV16(result.Sample, audioio.TargetSampleRate)
	if err != nil {
		metrics.Errors.WithLabelValues("enroll", "encode").Inc()
		return nil
	}

	s.enrollWAV = wav
	s.isEnrolled = true
	metrics.EnrollmentCompletedTotal.Inc()
	if s.persist != nil {
		s.persist.SaveWAV("enroll", wav)
	}

	s.mode = WaitingForEnrollmentConfirm
	return []Event{{Type: "enrollment_completed", Status: "completed", Message: "enrollment completed"}}
}

func (s *Session) handleAsrActive(ctx context.Context, chunk []float32) []Event {
	isSpeech, err := vaddecision.Decide(ctx, chunk, s.cfg.VAD, s.vadModel, s.vadCache)
	if err != nil {
		isSpeech = false
	}
	if isSpeech {
		metrics.VADSpeechSegments.Inc()
	}

	result := asrbuf.Append(s.asrBuf, chunk, isSpeech, time.Now())
	if !result.ShouldFinalize {
		return nil
	}

	utterance := asrbuf.Finalize(s.asrBuf)
	events := []Event{{Type: "processing", Status: "finalizing", Message: "finalizing utterance"}}
	events = append(events, s.finalize(ctx, utterance)...)
	return events
}

func (s *Session) finalize(ctx context.Context, utterance []float32) []Event {
	if s.persist != nil {
		if wav, err := audioio.EncodeWAV16(utterance, audioio.TargetSampleRate); err == nil {
			s.persist.SaveWAV("utterance", wav)
		}
	}

	gateStart := time.Now()
	text, err := s.gate.Run(ctx, utterance, svgate.Options{
		SVEnabled:   s.useSV,
		IsEnrolled:  s.isEnrolled,
		IsActivated: s.isActivated,
		EnrollWAV:   s.enrollWAV,
	})
	s.recordSpan("sv_gate", gateStart, err)
	if err != nil {
		if !isErr(err, svgate.ErrSVFailed) && !isErr(err, svgate.ErrNotActivated) {
			// A failed ASR inference call is reported as an empty result.
			err = fmt.Errorf("%w: %v", svgate.ErrEmpty, err)
		}
		return []Event{s.finalizeFailure(err)}
	}

	correctStart := time.Now()
	corrected, err := s.corrector.Correct(ctx, text, s.useLLM)
	s.recordSpan("text_correct", correctStart, err)
	if err != nil {
		return []Event{s.finalizeFailure(err)}
	}

	metrics.FinalizeTotal.WithLabelValues("success").Inc()
	return []Event{{Type: "result", Status: "completed", Text: corrected, Success: true}}
}

func (s *Session) recordSpan(stage string, startedAt time.Time, err error) {
	if s.trace == nil {
		return
	}
	status, errMsg := "ok", ""
	if err != nil {
		status, errMsg = "error", err.Error()
	}
	s.trace.RecordSpan(stage, startedAt, status, errMsg)
}

func (s *Session) finalizeFailure(err error) Event {
	switch {
	case isErr(err, svgate.ErrSVFailed):
		metrics.FinalizeTotal.WithLabelValues("sv_failed").Inc()
		metrics.SVOutcome.WithLabelValues("fail").Inc()
		return Event{Type: "result", Status: "completed", Text: svVerificationFailedMsg, Success: false}
	case isErr(err, svgate.ErrNotActivated):
		metrics.FinalizeTotal.WithLabelValues("sv_failed").Inc()
		metrics.SVOutcome.WithLabelValues("not_activated").Inc()
		return Event{Type: "result", Status: "completed", Text: svNotActivatedMsg, Success: false}
	case isErr(err, svgate.ErrEmpty), isErr(err, textcorrect.ErrEmpty):
		metrics.FinalizeTotal.WithLabelValues("empty").Inc()
		metrics.SVOutcome.WithLabelValues("empty").Inc()
		return Event{Type: "result", Status: "completed", Text: asrResultEmptyMsg, Success: false}
	default:
		metrics.FinalizeTotal.WithLabelValues("error").Inc()
		return Event{Type: "error", Code: "PROCESSING_ERROR", Message: fmt.Sprintf("finalize failed: %v", err)}
	}
}

func isErr(err, target error) bool {
	return errors.Is(err, target)
}

// Close releases the session, used when the transport connection ends. A
// Tracer that also implements Close (audit.Tracer does) is flushed here.
func (s *Session) Close() {
	metrics.SessionsActive.Dec()
	if closer, ok := s.trace.(interface{ Close() }); ok {
		closer.Close()
	}
}
