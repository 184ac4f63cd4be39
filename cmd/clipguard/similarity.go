// cmd/clipguard/similarity.go
package main

import (
	"context"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// SimilarityScorer supplies semantic relevance scores in [0,1] between
// a claim and each evidence text. The returned slice is order-preserving
// and has the same length as the input.
type SimilarityScorer interface {
	Similarity(ctx context.Context, claimText string, evidenceTexts []string) ([]float64, error)
}

// EmbeddingScorer scores relevance with OpenAI embeddings and cosine
// similarity computed locally.
type EmbeddingScorer struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration
}

// NewEmbeddingScorer creates the production similarity scorer.
func NewEmbeddingScorer(cfg *Config) *EmbeddingScorer {
	return &EmbeddingScorer{
		client:  openai.NewClient(cfg.OpenAIAPIKey),
		model:   openai.EmbeddingModel(cfg.EmbeddingModel),
		timeout: cfg.OracleTimeout(),
	}
}

// Similarity embeds the claim and all evidence texts in one batch and
// returns the cosine similarity of each evidence text to the claim,
// clipped to [0,1].
func (s *EmbeddingScorer) Similarity(ctx context.Context, claimText string, evidenceTexts []string) ([]float64, error) {
	if len(evidenceTexts) == 0 {
		return nil, nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	input := make([]string, 0, len(evidenceTexts)+1)
	input = append(input, normalizeText(claimText))
	for _, t := range evidenceTexts {
		input = append(input, normalizeText(truncateText(t, 2000)))
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: s.model,
		Input: input,
	})
	if err != nil {
		return nil, NewError(ErrorTypeOracle, ErrOracleCall, "embedding call failed", err)
	}
	if len(resp.Data) != len(input) {
		return nil, NewError(ErrorTypeOracle, ErrOracleBadJSON, "embedding response length mismatch", nil)
	}

	claimVec := resp.Data[0].Embedding
	scores := make([]float64, len(evidenceTexts))
	for i := range evidenceTexts {
		scores[i] = clip01(cosineSimilarity(claimVec, resp.Data[i+1].Embedding))
	}
	return scores, nil
}

// cosineSimilarity computes the cosine of the angle between two
// vectors; zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
