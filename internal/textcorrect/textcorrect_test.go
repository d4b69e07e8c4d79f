package textcorrect

import (
	"context"
	"errors"
	"testing"
)

type stubLLM struct {
	correction Correction
	err        error
	gotHotwords []string
}

func (s *stubLLM) Correct(ctx context.Context, text string, hotwords []string) (Correction, error) {
	s.gotHotwords = hotwords
	return s.correction, s.err
}

type stubHotwords struct {
	terms []string
}

func (s stubHotwords) Lookup(ctx context.Context, text string) []string {
	return s.terms
}

func TestCorrectWithoutLLMReturnsDeterministicResult(t *testing.T) {
	c := New(nil, nil)
	got, err := c.Correct(context.Background(), "肚子腾", false)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "肚子疼" {
		t.Errorf("expected deterministic substitution to apply, got %q", got)
	}
}

func TestCorrectEmptyAfterDeterministicReturnsErrEmpty(t *testing.T) {
	c := New(nil, nil)
	_, err := c.Correct(context.Background(), "嗯啊", false)
	if err != ErrEmpty {
		t.Fatalf("expected ErrEmpty for text that strips to nothing, got %v", err)
	}
}

func TestCorrectAppliesLLMResultWhenChanged(t *testing.T) {
	llm := &stubLLM{correction: Correction{Corrected: "腹痛", Changed: true}}
	c := New(llm, stubHotwords{terms: []string{"腹痛", "黑便"}})

	got, err := c.Correct(context.Background(), "肚子疼", true)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "腹痛" {
		t.Errorf("expected LLM-corrected text to replace the deterministic result, got %q", got)
	}
	if len(llm.gotHotwords) != 2 {
		t.Errorf("expected hotwords passed through to the LLM call, got %v", llm.gotHotwords)
	}
}

func TestCorrectKeepsDeterministicOnLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("backend down")}
	c := New(llm, nil)

	got, err := c.Correct(context.Background(), "肚子疼", true)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "肚子疼" {
		t.Errorf("expected deterministic result kept on LLM error, got %q", got)
	}
}

func TestCorrectSkipsLLMWhenUseLLMFalse(t *testing.T) {
	llm := &stubLLM{correction: Correction{Corrected: "should not be used", Changed: true}}
	c := New(llm, nil)

	got, err := c.Correct(context.Background(), "肚子疼", false)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "肚子疼" {
		t.Errorf("expected LLM phase skipped when useLLM is false, got %q", got)
	}
}

func TestCorrectIgnoresUnchangedLLMResult(t *testing.T) {
	llm := &stubLLM{correction: Correction{Corrected: "肚子疼", Changed: false}}
	c := New(llm, nil)

	got, err := c.Correct(context.Background(), "肚子疼", true)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "肚子疼" {
		t.Errorf("expected text unchanged, got %q", got)
	}
}
