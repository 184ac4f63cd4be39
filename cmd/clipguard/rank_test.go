// cmd/clipguard/rank_test.go
package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanker(topK int) *EvidenceRanker {
	return NewEvidenceRanker(nil, &Config{TopEvidence: topK})
}

func TestRankDateProximityBeatsScore(t *testing.T) {
	r := newTestRanker(5)
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	claim := mkClaim("c1", "claim")

	// The old article is maximally relevant and trusted; the
	// contemporaneous one is weak on both. Date proximity still wins.
	candidates := []EvidenceCandidate{
		mkEvidence("https://a.com/old", "2014-03-15", 1.0, 1.0),
		mkEvidence("https://b.com/fresh", "2024-03-16", 0.3, 0.3),
	}

	ranked := r.Rank(context.Background(), claim, candidates, videoDate)
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://b.com/fresh", ranked[0].URL)
	assert.Equal(t, 1, ranked[0].DateDiffDays)
	assert.Equal(t, 3653, ranked[1].DateDiffDays)
}

func TestRankUndatedSortsLast(t *testing.T) {
	r := newTestRanker(5)
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	claim := mkClaim("c1", "claim")

	candidates := []EvidenceCandidate{
		mkEvidence("https://a.com/undated", "", 1.0, 1.0),
		mkEvidence("https://b.com/dated", "2021-01-01", 0.3, 0.3),
	}

	ranked := r.Rank(context.Background(), claim, candidates, videoDate)
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://b.com/dated", ranked[0].URL)
	assert.Equal(t, -1, ranked[1].DateDiffDays)
}

func TestRankTieBreaksByCombinedScore(t *testing.T) {
	r := newTestRanker(5)
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	claim := mkClaim("c1", "claim")

	candidates := []EvidenceCandidate{
		mkEvidence("https://weak.com/a", "2024-03-16", 0.2, 0.2),
		mkEvidence("https://strong.com/a", "2024-03-16", 0.9, 0.9),
	}

	ranked := r.Rank(context.Background(), claim, candidates, videoDate)
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://strong.com/a", ranked[0].URL)
	assert.Greater(t, ranked[0].CombinedScore, ranked[1].CombinedScore)
}

func TestRankIsIdempotent(t *testing.T) {
	r := newTestRanker(5)
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	claim := mkClaim("c1", "claim")

	candidates := []EvidenceCandidate{
		mkEvidence("https://a.com/1", "2024-03-10", 0.5, 0.5),
		mkEvidence("https://b.com/2", "2024-03-10", 0.5, 0.5),
		mkEvidence("https://c.com/3", "", 0.9, 0.9),
		mkEvidence("https://d.com/4", "2024-02-01", 0.7, 0.7),
	}

	once := r.Rank(context.Background(), claim, candidates, videoDate)
	twice := r.Rank(context.Background(), claim, once, videoDate)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].URL, twice[i].URL)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	r := newTestRanker(5)
	claim := mkClaim("c1", "claim")
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	candidates := []EvidenceCandidate{
		mkEvidence("https://a.com/old", "2014-03-15", 1.0, 1.0),
		mkEvidence("https://b.com/fresh", "2024-03-16", 0.3, 0.3),
	}

	r.Rank(context.Background(), claim, candidates, videoDate)
	assert.Equal(t, "https://a.com/old", candidates[0].URL)
	assert.Equal(t, -1, candidates[0].DateDiffDays)
}

func TestSelectTopAfterOrdering(t *testing.T) {
	r := newTestRanker(2)
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	claim := mkClaim("c1", "claim")

	candidates := []EvidenceCandidate{
		mkEvidence("https://far.com/a", "2020-01-01", 0.9, 0.9),
		mkEvidence("https://near.com/a", "2024-03-14", 0.3, 0.3),
		mkEvidence("https://mid.com/a", "2023-03-15", 0.5, 0.5),
	}

	top := r.RankAndSelect(context.Background(), claim, candidates, videoDate)
	require.Len(t, top, 2)
	assert.Equal(t, "https://near.com/a", top[0].URL)
	assert.Equal(t, "https://mid.com/a", top[1].URL)
}

func TestRankAppliesSimilarityScores(t *testing.T) {
	r := NewEvidenceRanker(&fakeScorer{scores: []float64{0.9}}, &Config{TopEvidence: 5})
	claim := mkClaim("c1", "claim")

	ranked := r.Rank(context.Background(), claim,
		[]EvidenceCandidate{mkEvidence("https://a.com/x", "", 0.5, 0.1)}, time.Time{})
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.9, ranked[0].RelevanceScore)
}

func TestRankKeepsScoresWhenScorerFails(t *testing.T) {
	r := NewEvidenceRanker(&fakeScorer{err: assert.AnError}, &Config{TopEvidence: 5})
	claim := mkClaim("c1", "claim")

	ranked := r.Rank(context.Background(), claim,
		[]EvidenceCandidate{mkEvidence("https://a.com/x", "", 0.5, 0.42)}, time.Time{})
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.42, ranked[0].RelevanceScore)
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()

	t.Run("known diff uses 30 day decay", func(t *testing.T) {
		ev := EvidenceCandidate{DateDiffDays: 30}
		assert.InDelta(t, math.Exp(-1), recencyScore(ev, now), 1e-9)
	})

	t.Run("zero diff scores one", func(t *testing.T) {
		ev := EvidenceCandidate{DateDiffDays: 0}
		assert.InDelta(t, 1.0, recencyScore(ev, now), 1e-9)
	})

	t.Run("unknown diff falls back to 365 day decay", func(t *testing.T) {
		ev := EvidenceCandidate{
			DateDiffDays:  -1,
			PublishedDate: now.AddDate(-1, 0, 0).Format("2006-01-02"),
		}
		got := recencyScore(ev, now)
		assert.InDelta(t, math.Exp(-1), got, 0.01)
	})

	t.Run("no date at all", func(t *testing.T) {
		ev := EvidenceCandidate{DateDiffDays: -1}
		assert.Equal(t, recencyUnknown, recencyScore(ev, now))
	})
}

func TestCombinedScoreWeights(t *testing.T) {
	r := newTestRanker(5)
	claim := mkClaim("c1", "claim")
	videoDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	ev := mkEvidence("https://a.com/x", "2024-03-15", 0.5, 0.8)
	ranked := r.Rank(context.Background(), claim, []EvidenceCandidate{ev}, videoDate)
	require.Len(t, ranked, 1)

	// diff = 0 days so recency = 1.0
	want := 0.4*0.8 + 0.2*0.5 + 0.4*1.0
	assert.InDelta(t, want, ranked[0].CombinedScore, 1e-9)
}
