// cmd/clipguard/pipeline_test.go
package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTextPipeline(oracle JudgmentOracle, searcher WebSearcher) *TextPipeline {
	cfg := &Config{MinTrustScore: 0.1, TopEvidence: 5, ClaimWorkers: 2}
	store := NewTrustStore("/nonexistent/sources.yml")
	store.current.Store(testRegistry())

	return NewTextPipeline(
		oracle,
		searcher,
		NewEvidenceFilter(store, cfg),
		NewEvidenceRanker(nil, cfg),
		NewClaimVerifier(oracle),
		cfg,
	)
}

func TestTextPipelinePreservesClaimOrder(t *testing.T) {
	oracle := newFakeOracle()
	oracle.judgment = Judgment{Status: VerdictTrue, Reason: "confirmed"}
	searcher := &fakeSearcher{hits: []SearchHit{
		{Title: "hit", URL: "https://reuters.com/a", Content: "text", PublishedDate: "2024-01-01"},
	}}
	p := newTestTextPipeline(oracle, searcher)

	claims := []Claim{mkClaim("c1", "first"), mkClaim("c2", "second"), mkClaim("c3", "third")}
	verdicts, rollup, err := p.Run(context.Background(), claims, VideoInfo{})

	require.NoError(t, err)
	require.Len(t, verdicts, 3)
	for i, c := range claims {
		assert.Equal(t, c.ID, verdicts[i].ClaimID)
		assert.Equal(t, VerdictTrue, verdicts[i].Status)
	}
	assert.Equal(t, ModalitySuccess, rollup.Status)
}

func TestTextPipelineSearchFailureResolvesInsufficient(t *testing.T) {
	oracle := newFakeOracle()
	searcher := &fakeSearcher{err: NewError(ErrorTypeSearch, ErrSearchCall, "search down", nil)}
	p := newTestTextPipeline(oracle, searcher)

	verdicts, _, err := p.Run(context.Background(), []Claim{mkClaim("c1", "claim")}, VideoInfo{})

	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, VerdictInsufficient, verdicts[0].Status)
	// No evidence means the judgment oracle is never consulted.
	assert.Equal(t, 0, oracle.callCount("Judge"))
}

func TestTextPipelineQueryFallsBackToClaimText(t *testing.T) {
	oracle := newFakeOracle()
	oracle.queryErr = NewError(ErrorTypeOracle, ErrOracleCall, "oracle down", nil)
	searcher := &fakeSearcher{}
	p := newTestTextPipeline(oracle, searcher)

	_, _, err := p.Run(context.Background(), []Claim{mkClaim("c1", "claim")}, VideoInfo{})

	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)
}

func TestTextPipelineDropsDeniedBeforeJudgment(t *testing.T) {
	oracle := newFakeOracle()
	oracle.judgment = Judgment{Status: VerdictTrue, Reason: "supported"}

	cfg := &Config{MinTrustScore: 0.1, TopEvidence: 5, ClaimWorkers: 1}
	store := NewTrustStore("/nonexistent/sources.yml")
	store.current.Store(NewTrustRegistry(SourceList{
		Tiers:    map[string]TierConfig{"press": {Score: 0.8, Domains: []string{"trusted.example.com"}}},
		Denylist: []string{"denylisted.example.com"},
	}))
	p := NewTextPipeline(oracle, &fakeSearcher{hits: []SearchHit{
		{Title: "good", URL: "https://trusted.example.com/2023-05-01/report", Content: "growth figures", PublishedDate: "2023-05-01"},
		{Title: "bad", URL: "https://denylisted.example.com/hoax", Content: "nonsense"},
	}}, NewEvidenceFilter(store, cfg), NewEvidenceRanker(nil, cfg), NewClaimVerifier(oracle), cfg)

	verdicts, _, err := p.Run(context.Background(),
		[]Claim{mkClaim("c1", "X grew 10% in 2023")}, VideoInfo{})

	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, VerdictTrue, verdicts[0].Status)

	// The denylisted hit never reaches the oracle.
	require.Len(t, oracle.lastEvidence, 1)
	assert.Equal(t, "trusted.example.com", oracle.lastEvidence[0].Domain)
}

func TestRollUpVerdicts(t *testing.T) {
	t.Run("majority fake marks suspicious", func(t *testing.T) {
		verdicts := []ClaimVerdict{
			{ClaimID: "c1", ClaimText: "first refuted claim", Status: VerdictFalse},
			{ClaimID: "c2", ClaimText: "confirmed claim", Status: VerdictTrue},
			{ClaimID: "c3", ClaimText: "second refuted claim", Status: VerdictFalse},
		}
		got := rollUpVerdicts(verdicts)

		assert.Contains(t, got.Summary, "suspicious")
		assert.Contains(t, got.Summary, "2 of 3")
		assert.Contains(t, got.Summary, "first refuted claim")
	})

	t.Run("minority fake is not suspicious", func(t *testing.T) {
		verdicts := []ClaimVerdict{
			{ClaimID: "c1", Status: VerdictFalse},
			{ClaimID: "c2", Status: VerdictTrue},
			{ClaimID: "c3", Status: VerdictInsufficient},
		}
		got := rollUpVerdicts(verdicts)

		assert.NotContains(t, got.Summary, "suspicious")
	})

	t.Run("insufficient does not count as fake", func(t *testing.T) {
		verdicts := []ClaimVerdict{
			{ClaimID: "c1", Status: VerdictInsufficient},
			{ClaimID: "c2", Status: VerdictInsufficient},
		}
		got := rollUpVerdicts(verdicts)

		assert.Contains(t, got.Summary, "0 of 2")
		assert.NotContains(t, got.Summary, "suspicious")
	})
}

func TestAudioPipelineFansNoteToAllClaims(t *testing.T) {
	oracle := newFakeOracle()
	oracle.clickbait = "title matches the spoken content"
	p := NewAudioPipeline(oracle)

	claims := []Claim{mkClaim("c1", "a"), mkClaim("c2", "b")}
	got := p.Run(context.Background(), "title", "a long transcript", claims)

	assert.Equal(t, ModalitySuccess, got.Status)
	require.Len(t, got.Notes, 2)
	assert.Equal(t, "c1", got.Notes[0].ClaimID)
	assert.Equal(t, "c2", got.Notes[1].ClaimID)
	assert.Equal(t, "title matches the spoken content", got.Notes[0].Note)
}

func TestAudioPipelineEmptyTranscript(t *testing.T) {
	oracle := newFakeOracle()
	p := NewAudioPipeline(oracle)

	got := p.Run(context.Background(), "title", "   ", nil)

	assert.Equal(t, ModalitySuccess, got.Status)
	assert.Equal(t, 0, oracle.callCount("CheckClickbait"))
}

func TestAudioPipelineFailureDegrades(t *testing.T) {
	oracle := newFakeOracle()
	oracle.clickbaitErr = NewError(ErrorTypeOracle, ErrOracleCall, "oracle down", nil)
	p := NewAudioPipeline(oracle)

	got := p.Run(context.Background(), "title", "transcript", nil)

	assert.Equal(t, ModalityError, got.Status)
	assert.NotEmpty(t, got.Err)
}

func TestImagePipelineNotConfigured(t *testing.T) {
	p := NewImagePipeline(&Config{TranscriptTimeoutSec: 1})

	got := p.Run(context.Background(), "vid1", nil)

	assert.Equal(t, ModalitySuccess, got.Status)
	assert.Contains(t, got.Summary, "not configured")
}
