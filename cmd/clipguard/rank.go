// cmd/clipguard/rank.go
package main

import (
	"context"
	"math"
	"sort"
	"time"
)

// Combined score weights: semantic relevance and date recency dominate,
// domain trust breaks the balance.
const (
	weightRelevance = 0.4
	weightTrust     = 0.2
	weightRecency   = 0.4
)

// Recency decay half-lives. The 30-day decay is the authoritative path,
// used whenever the evidence's distance to the video publish date is
// known; the 365-day decay is only the fallback when that distance
// cannot be computed.
const (
	recencyDecayDays         = 30.0
	recencyFallbackDecayDays = 365.0
	recencyUnknown           = 0.7
)

// unknownDateSentinelDays pushes undated evidence behind every dated
// item in the date-proximity order.
const unknownDateSentinelDays = 3650

// EvidenceRanker orders evidence candidates for one claim. The primary
// key is date proximity to the video's publish date; the combined
// relevance/trust/recency score only breaks ties. A highly relevant but
// decade-old article must not outrank a weaker contemporaneous one.
type EvidenceRanker struct {
	scorer SimilarityScorer
	topK   int
}

// NewEvidenceRanker creates a ranker with the configured top-K.
func NewEvidenceRanker(scorer SimilarityScorer, cfg *Config) *EvidenceRanker {
	return &EvidenceRanker{scorer: scorer, topK: cfg.TopEvidence}
}

// Rank scores and orders the candidates. videoPublishedAt anchors the
// date-proximity key; the zero time means the video date is unknown and
// every candidate falls back to the loose recency decay. The input
// slice is not modified.
func (r *EvidenceRanker) Rank(ctx context.Context, claim Claim, candidates []EvidenceCandidate, videoPublishedAt time.Time) []EvidenceCandidate {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]EvidenceCandidate, len(candidates))
	copy(ranked, candidates)

	r.applyRelevance(ctx, claim, ranked)

	now := time.Now()
	for i := range ranked {
		ranked[i].DateDiffDays = dateDiffDays(ranked[i].PublishedDate, videoPublishedAt)
		recency := recencyScore(ranked[i], now)
		ranked[i].CombinedScore = weightRelevance*ranked[i].RelevanceScore +
			weightTrust*ranked[i].TrustScore +
			weightRecency*recency
	}

	// Primary key: date proximity ascending. Secondary: combined score
	// descending. Stable, so equal keys keep input order and ranking
	// the same set twice yields the same order.
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := sortDiff(ranked[i]), sortDiff(ranked[j])
		if di != dj {
			return di < dj
		}
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})

	for idx, ev := range ranked {
		if idx >= 5 {
			break
		}
		Logger().Debug("Rank #%d: %s diff=%dd combined=%.3f", idx+1,
			truncateText(ev.Title, 40), ev.DateDiffDays, ev.CombinedScore)
	}
	return ranked
}

// SelectTop returns the leading topK items of an already ranked list.
// Selection happens strictly after ordering.
func (r *EvidenceRanker) SelectTop(ranked []EvidenceCandidate) []EvidenceCandidate {
	if len(ranked) <= r.topK {
		return ranked
	}
	return ranked[:r.topK]
}

// RankAndSelect runs ranking and top-K selection in one step.
func (r *EvidenceRanker) RankAndSelect(ctx context.Context, claim Claim, candidates []EvidenceCandidate, videoPublishedAt time.Time) []EvidenceCandidate {
	return r.SelectTop(r.Rank(ctx, claim, candidates, videoPublishedAt))
}

// applyRelevance overwrites the search engine's relevance guess with
// the similarity collaborator's semantic score. A scorer failure keeps
// the existing scores; ranking still works, just less precisely.
func (r *EvidenceRanker) applyRelevance(ctx context.Context, claim Claim, candidates []EvidenceCandidate) {
	if r.scorer == nil {
		return
	}

	texts := make([]string, len(candidates))
	for i, ev := range candidates {
		texts[i] = ev.Title + " " + ev.Snippet
	}

	scores, err := r.scorer.Similarity(ctx, claim.Text, texts)
	if err != nil || len(scores) != len(candidates) {
		Logger().Warning("Similarity scoring unavailable, keeping search relevance: %v", err)
		return
	}
	for i := range candidates {
		candidates[i].RelevanceScore = scores[i]
	}
}

// dateDiffDays computes the absolute day distance between an evidence
// publish date and the video publish date; -1 when either is unknown.
func dateDiffDays(publishedDate string, videoPublishedAt time.Time) int {
	if publishedDate == "" || videoPublishedAt.IsZero() {
		return -1
	}
	evDate, ok := parsePublishedDate(publishedDate)
	if !ok {
		return -1
	}

	diff := evDate.Sub(videoPublishedAt).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	return int(diff)
}

// recencyScore computes the exponential-decay recency component.
func recencyScore(ev EvidenceCandidate, now time.Time) float64 {
	if ev.DateDiffDays >= 0 {
		return math.Exp(-float64(ev.DateDiffDays) / recencyDecayDays)
	}

	evDate, ok := parsePublishedDate(ev.PublishedDate)
	if !ok {
		return recencyUnknown
	}
	daysAgo := now.Sub(evDate).Hours() / 24
	if daysAgo < 0 {
		daysAgo = 0
	}
	return clip01(math.Exp(-daysAgo / recencyFallbackDecayDays))
}

// sortDiff maps the unknown-date marker onto the large sentinel so
// undated evidence sorts last.
func sortDiff(ev EvidenceCandidate) int {
	if ev.DateDiffDays < 0 {
		return unknownDateSentinelDays
	}
	return ev.DateDiffDays
}
