// Command hotwordsseed embeds the static domain-vocabulary list and upserts
// it into the Qdrant collection the voicegateway's hotword lookup searches
// at correction time. Run once after deploying or updating hotwords.txt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/config"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/hotwords"
)

const (
	collectionName = "hotwords"
	embedModel     = "nomic-embed-text"
	httpPoolSize   = 8
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.LoadVoice()
	path := flag.String("path", cfg.HotwordsPath, "newline-delimited vocabulary file")
	embedURL := flag.String("embed-url", cfg.HotwordsEmbedURL, "embedding service base URL")
	qdrantURL := flag.String("qdrant-url", cfg.HotwordsQdrantURL, "qdrant base URL")
	flag.Parse()

	if *qdrantURL == "" {
		slog.Error("qdrant-url is required (set HOTWORDS_QDRANT_URL or pass -qdrant-url)")
		os.Exit(1)
	}

	static := hotwords.Load(*path)
	terms := static.Terms()
	if len(terms) == 0 {
		slog.Error("no vocabulary terms found", "path", *path)
		os.Exit(1)
	}

	embedder := hotwords.NewEmbeddingClient(*embedURL, embedModel, httpPoolSize)
	qdrant := hotwords.NewQdrantClient(*qdrantURL, httpPoolSize)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, embedder, qdrant, terms); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("hotwords seeded", "count", len(terms))
}

// seed embeds every term and upserts it into the vocabulary collection,
// creating the collection first from the dimensionality of the first
// embedding.
func seed(ctx context.Context, embedder *hotwords.EmbeddingClient, qdrant *hotwords.QdrantClient, terms []string) error {
	points := make([]hotwords.Point, 0, len(terms))
	for i, term := range terms {
		vector, err := embedder.Embed(ctx, term)
		if err != nil {
			return fmt.Errorf("embed term %q: %w", term, err)
		}
		if i == 0 {
			if err := qdrant.EnsureCollection(ctx, collectionName, len(vector)); err != nil {
				return fmt.Errorf("ensure collection: %w", err)
			}
		}
		// Deterministic per-term IDs make re-seeding an idempotent upsert.
		points = append(points, hotwords.Point{
			ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(term)).String(),
			Vector:  vector,
			Payload: map[string]any{"term": term},
		})
	}
	return qdrant.Upsert(ctx, collectionName, points)
}
