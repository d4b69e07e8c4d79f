// Package enroll implements the speaker enrollment capturer: it
// accumulates post-wake speech into a reference sample once at least
// minEnrollSeconds of speech-to-silence has elapsed with a trailing silence
// gap, and signals acceptance for persistence by the caller.
package enroll

import "time"

// Config holds the acceptance thresholds.
type Config struct {
	MinEnrollSeconds       float64
	TrailingSilenceSeconds float64
}

// Capture holds per-session enrollment state.
type Capture struct {
	cfg Config

	buffer      []float32
	hasSpeech   bool
	firstSpeech time.Time
	lastVoice   time.Time
}

// New creates an enrollment capturer for one session.
func New(cfg Config) *Capture {
	return &Capture{cfg: cfg}
}

// Result reports the outcome of processing one chunk.
type Result struct {
	Accepted bool
	Sample   []float32
}

// Append processes one chunk given this chunk's VAD speech decision and the
// current monotonic time. Chunks before the first detected speech are
// dropped; from first speech onward every chunk (speech or silence) is
// accumulated.
func Append(c *Capture, chunk []float32, isSpeech bool, now time.Time) Result {
	if !c.hasSpeech {
		if !isSpeech {
			return Result{}
		}
		c.hasSpeech = true
		c.firstSpeech = now
		c.lastVoice = now
	}

	c.buffer = append(c.buffer, chunk...)
	if isSpeech {
		c.lastVoice = now
	}

	elapsedSpeech := now.Sub(c.firstSpeech).Seconds()
	silence := now.Sub(c.lastVoice).Seconds()

	if elapsedSpeech >= c.cfg.MinEnrollSeconds && silence >= c.cfg.TrailingSilenceSeconds {
		sample := c.buffer
		Reset(c)
		return Result{Accepted: true, Sample: sample}
	}
	return Result{}
}

// Reset clears capture state, used after acceptance or on cancellation.
func Reset(c *Capture) {
	c.buffer = nil
	c.hasSpeech = false
	c.firstSpeech = time.Time{}
	c.lastVoice = time.Time{}
}
