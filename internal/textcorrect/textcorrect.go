// Package textcorrect implements the text post-corrector: a
// deterministic rule pass followed by an optional LLM correction call
// enriched with domain hotwords.
package textcorrect

import (
	"context"
	"errors"
	"log/slog"
)

// ErrEmpty is returned when, after all passes, the text carries no content.
var ErrEmpty = errors.New("ASR_RESULT_EMPTY")

// LLMCorrector is the narrow contract for the LLM correction phase.
type LLMCorrector interface {
	Correct(ctx context.Context, text string, hotwords []string) (Correction, error)
}

// Correction mirrors models.CorrectResult without importing the models
// package, keeping this package's only dependency direction inward.
type Correction struct {
	Corrected string
	Changed   bool
}

// HotwordLookup supplies the static vocabulary plus any vector-search
// augmentation for a given in-progress text.
type HotwordLookup interface {
	Lookup(ctx context.Context, text string) []string
}

// Corrector wires the deterministic rules to the optional LLM phase.
type Corrector struct {
	llm      LLMCorrector
	hotwords HotwordLookup
}

// New creates a corrector. llm and hotwords may be nil, in which case the
// LLM phase is skipped entirely.
func New(llm LLMCorrector, hotwords HotwordLookup) *Corrector {
	return &Corrector{llm: llm, hotwords: hotwords}
}

// Correct runs the deterministic phase, then the LLM phase when useLLM is
// true and the deterministic result is non-empty. Returns ErrEmpty when the
// final text carries no content.
func (c *Corrector) Correct(ctx context.Context, raw string, useLLM bool) (string, error) {
	text := ApplyDeterministic(raw)

	if useLLM && text != "" && c.llm != nil {
		hotwords := c.lookupHotwords(ctx, text)
		result, err := c.llm.Correct(ctx, text, hotwords)
		if err != nil {
			slog.Warn("llm correction failed, keeping deterministic result", "error", err)
		} else if result.Corrected != "" && result.Corrected != text {
			text = result.Corrected
		}
	}

	if IsEffectivelyEmpty(text) {
		return "", ErrEmpty
	}
	return text, nil
}

func (c *Corrector) lookupHotwords(ctx context.Context, text string) []string {
	if c.hotwords == nil {
		return nil
	}
	return c.hotwords.Lookup(ctx, text)
}
