// Package hotwords loads the process-wide domain vocabulary (symptom and
// body-part terms) and, when a vector-search backend is configured,
// augments it per-call with the nearest terms to the in-progress text.
package hotwords

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
)

const collectionName = "hotwords"

// Static holds the read-only, process-wide vocabulary list loaded once at
// startup. It never changes after Load returns.
type Static struct {
	terms []string
}

// Load reads newline-delimited vocabulary terms from path, falling back to
// an empty list if the file is absent: a missing hotword file degrades the
// LLM phase to plain correction, it never fails the corrector.
func Load(path string) *Static {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("hotwords file not found, continuing with empty vocabulary", "path", path, "error", err)
		return &Static{}
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			terms = append(terms, line)
		}
	}
	return &Static{terms: terms}
}

// Terms returns the static vocabulary list.
func (s *Static) Terms() []string {
	return s.terms
}

// Lookup combines the static list with a qdrant-backed nearest-neighbor
// search when configured; it never returns an error, since a search failure
// silently degrades to the static list alone.
type Lookup struct {
	static   *Static
	embedder *EmbeddingClient
	qdrant   *QdrantClient
	topK     int
}

// NewLookup creates a hotword lookup. embedder and qdrant may be nil, in
// which case Lookup always returns the static list.
func NewLookup(static *Static, embedder *EmbeddingClient, qdrant *QdrantClient, topK int) *Lookup {
	if topK <= 0 {
		topK = 5
	}
	return &Lookup{static: static, embedder: embedder, qdrant: qdrant, topK: topK}
}

// Lookup returns the static vocabulary plus, when a vector backend is
// configured, the top-K nearest domain terms to text.
func (l *Lookup) Lookup(ctx context.Context, text string) []string {
	terms := append([]string(nil), l.static.Terms()...)
	if l.embedder == nil || l.qdrant == nil {
		return terms
	}

	vector, err := l.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("hotword embedding failed, using static vocabulary only", "error", err)
		return terms
	}

	hits, err := l.qdrant.Search(ctx, collectionName, vector, l.topK)
	if err != nil {
		slog.Warn("hotword vector search failed, using static vocabulary only", "error", err)
		return terms
	}

	for _, h := range hits {
		if term, ok := h.Payload["term"].(string); ok {
			terms = append(terms, term)
		}
	}
	return terms
}
