package models

import (
	"context"
	"fmt"
	"time"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/nlpodyssey/openai-agents-go/modelsettings"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/tidwall/gjson"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
)

const correctorInstructions = `You correct ASR transcripts of medical triage speech. ` +
	`Given a transcript and a list of domain hotwords, make the minimal edit needed to fix ` +
	`ASR mistakes, preserving the semantic type and body part mentioned. Never invent new ` +
	`symptoms or body parts that are not implied by the input. Respond with a single JSON ` +
	`object: {"corrected": string, "changed": boolean}.`

// CorrectResult is the parsed LLM correction response.
type CorrectResult struct {
	Corrected string
	Changed   bool
}

// LLMCorrectClient runs the single non-streaming LLM correction call via the agents SDK, the same provider-registration idiom the
// streaming chat client uses, narrowed to one turn with no token callback.
type LLMCorrectClient struct {
	provider  agents.ModelProvider
	model     string
	maxTokens int
}

// NewLLMCorrectClient creates a correction client bound to one model
// provider and model name.
func NewLLMCorrectClient(provider agents.ModelProvider, model string, maxTokens int) *LLMCorrectClient {
	return &LLMCorrectClient{provider: provider, model: model, maxTokens: maxTokens}
}

// Correct sends the text plus hotword list and parses the JSON response.
// Any error (network, non-JSON response, missing "corrected" field) is
// returned so the caller can fall back to the deterministic result.
func (c *LLMCorrectClient) Correct(ctx context.Context, text string, hotwords []string) (CorrectResult, error) {
	start := time.Now()

	agent := agents.New("text-corrector").
		WithInstructions(correctorInstructions).
		WithModel(c.model).
		WithModelSettings(modelsettings.ModelSettings{
			MaxTokens: param.NewOpt(int64(c.maxTokens)),
		})

	runner := agents.Runner{Config: agents.RunConfig{
		ModelProvider:   c.provider,
		MaxTurns:        1,
		TracingDisabled: true,
	}}

	input := fmt.Sprintf("transcript: %s\nhotwords: %v", text, hotwords)
	result, err := runner.Run(ctx, agent, input)

	metrics.StageDuration.WithLabelValues("llm_correct").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Errors.WithLabelValues("llm_correct", "run").Inc()
		return CorrectResult{}, fmt.Errorf("llm correct run: %w", err)
	}

	raw, ok := result.FinalOutput.(string)
	if !ok {
		return CorrectResult{}, fmt.Errorf("llm correct: unexpected final output type %T", result.FinalOutput)
	}
	parsed := gjson.Parse(raw)
	correctedField := parsed.Get("corrected")
	if !correctedField.Exists() {
		return CorrectResult{}, fmt.Errorf("llm correct: response missing \"corrected\" field")
	}

	return CorrectResult{
		Corrected: correctedField.String(),
		Changed:   parsed.Get("changed").Bool(),
	}, nil
}
