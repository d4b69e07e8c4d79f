package hotwords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// QdrantClient is a narrow REST client for the hotword vocabulary
// collection, adapted from the wider Qdrant client the pack's gateway
// repo uses for retrieval-augmented generation.
type QdrantClient struct {
	url    string
	client *http.Client
}

// NewQdrantClient creates a Qdrant REST client.
func NewQdrantClient(url string, poolSize int) *QdrantClient {
	return &QdrantClient{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        poolSize,
				MaxIdleConnsPerHost: poolSize,
			},
		},
	}
}

// EnsureCollection creates the hotword collection if it doesn't exist yet.
func (q *QdrantClient) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	body, err := json.Marshal(qdrantCreateCollection{
		Vectors: qdrantVectorConfig{Size: vectorSize, Distance: "Cosine"},
	})
	if err != nil {
		return fmt.Errorf("marshal collection config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", q.url+"/collections/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("create collection status %d", resp.StatusCode)
}

// Point is a vocabulary term plus its embedding vector.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert inserts or updates vocabulary points.
func (q *QdrantClient) Upsert(ctx context.Context, collection string, points []Point) error {
	body, err := json.Marshal(qdrantUpsertRequest{Points: points})
	if err != nil {
		return fmt.Errorf("marshal upsert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", q.url+"/collections/"+collection+"/points", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upsert status %d", resp.StatusCode)
	}
	return nil
}

// SearchHit is one nearest-neighbor vocabulary term.
type SearchHit struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Search finds the top-K nearest vocabulary terms to vector.
func (q *QdrantClient) Search(ctx context.Context, collection string, vector []float64, topK int) ([]SearchHit, error) {
	body, err := json.Marshal(qdrantSearchRequest{Vector: vector, Limit: topK, WithPayload: true})
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", q.url+"/collections/"+collection+"/points/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var result qdrantSearchResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.Result, nil
}

type qdrantCreateCollection struct {
	Vectors qdrantVectorConfig `json:"vectors"`
}

type qdrantVectorConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantUpsertRequest struct {
	Points []Point `json:"points"`
}

type qdrantSearchRequest struct {
	Vector      []float64 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []SearchHit `json:"result"`
}
