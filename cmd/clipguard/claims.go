// cmd/clipguard/claims.go
package main

import (
	"context"
	"strings"
)

// ClaimExtractor wraps the oracle's claim extraction with the local
// post-processing the pipeline needs: importance filtering and
// duplicate removal.
type ClaimExtractor struct {
	oracle    JudgmentOracle
	maxClaims int
}

// NewClaimExtractor creates an extractor with the configured cap.
func NewClaimExtractor(oracle JudgmentOracle, cfg *Config) *ClaimExtractor {
	return &ClaimExtractor{oracle: oracle, maxClaims: cfg.MaxClaims}
}

// Extract pulls claims from the video text, keeps the ones of at least
// medium importance, and removes near-duplicates. An oracle failure
// yields an empty list; the orchestrator treats that the same as
// non-substantive content.
func (e *ClaimExtractor) Extract(ctx context.Context, title, description, transcript string, maxClaims int) []Claim {
	if maxClaims <= 0 {
		maxClaims = e.maxClaims
	}

	claims, err := e.oracle.ExtractClaims(ctx, title, description, transcript, maxClaims)
	if err != nil {
		Logger().Error("Claim extraction failed: %v", err)
		return nil
	}

	claims = filterByImportance(claims, "medium")
	claims = deduplicateClaims(claims)
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}

	Logger().Info("Extracted %d claims", len(claims))
	return claims
}

var importanceOrder = map[string]int{"high": 3, "medium": 2, "low": 1}

// filterByImportance keeps claims at or above the minimum importance.
func filterByImportance(claims []Claim, minImportance string) []Claim {
	minLevel := importanceOrder[minImportance]
	if minLevel == 0 {
		minLevel = 2
	}

	filtered := make([]Claim, 0, len(claims))
	for _, c := range claims {
		level := importanceOrder[c.Importance]
		if level == 0 {
			level = 2
		}
		if level >= minLevel {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// deduplicateClaims removes claims whose word sets overlap an earlier
// claim by 70% or more.
func deduplicateClaims(claims []Claim) []Claim {
	if len(claims) == 0 {
		return claims
	}

	unique := []Claim{claims[0]}
	for _, claim := range claims[1:] {
		duplicate := false
		for _, kept := range unique {
			if wordOverlap(claim.Text, kept.Text) >= 0.7 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, claim)
		}
	}
	return unique
}

// wordOverlap returns the share of a's words that also occur in b.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	if len(wordsA) == 0 {
		return 0
	}

	setB := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		setB[w] = true
	}

	shared := 0
	for _, w := range wordsA {
		if setB[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(wordsA))
}
