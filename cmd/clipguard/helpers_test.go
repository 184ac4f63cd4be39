// cmd/clipguard/helpers_test.go
package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeOracle is a scriptable JudgmentOracle that counts calls per
// method.
type fakeOracle struct {
	mu    sync.Mutex
	calls map[string]int

	claims    []Claim
	claimsErr error

	query    string
	queryErr error

	judgment     Judgment
	judgmentErr  error
	lastEvidence []EvidenceCandidate

	answer    AggregateAnswer
	answerErr error

	clickbait    string
	clickbaitErr error
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{calls: make(map[string]int)}
}

func (f *fakeOracle) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeOracle) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeOracle) ExtractClaims(ctx context.Context, title, description, transcript string, maxClaims int) ([]Claim, error) {
	f.record("ExtractClaims")
	return f.claims, f.claimsErr
}

func (f *fakeOracle) BuildQuery(ctx context.Context, claimText string) (string, error) {
	f.record("BuildQuery")
	if f.query == "" && f.queryErr == nil {
		return claimText, nil
	}
	return f.query, f.queryErr
}

func (f *fakeOracle) Judge(ctx context.Context, claimText string, evidence []EvidenceCandidate) (Judgment, error) {
	f.record("Judge")
	f.mu.Lock()
	f.lastEvidence = evidence
	f.mu.Unlock()
	return f.judgment, f.judgmentErr
}

func (f *fakeOracle) Aggregate(ctx context.Context, req AggregateRequest) (AggregateAnswer, error) {
	f.record("Aggregate")
	return f.answer, f.answerErr
}

func (f *fakeOracle) CheckClickbait(ctx context.Context, title, transcript string) (string, error) {
	f.record("CheckClickbait")
	return f.clickbait, f.clickbaitErr
}

// fakeSearcher returns canned hits.
type fakeSearcher struct {
	hits  []SearchHit
	err   error
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	f.calls++
	return f.hits, f.err
}

// fakeScorer returns a fixed score per evidence text.
type fakeScorer struct {
	scores []float64
	err    error
}

func (f *fakeScorer) Similarity(ctx context.Context, claimText string, evidenceTexts []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.scores != nil {
		return f.scores, nil
	}
	scores := make([]float64, len(evidenceTexts))
	for i := range scores {
		scores[i] = 0.5
	}
	return scores, nil
}

// fakeStrategy scripts a transcript tier: it returns errs in order and
// text once errs run out.
type fakeStrategy struct {
	name  string
	text  string
	errs  []error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, req *TranscriptRequest) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.text, nil
}

// fakeVideoFetcher returns fixed metadata.
type fakeVideoFetcher struct {
	info  VideoInfo
	calls int
}

func (f *fakeVideoFetcher) Fetch(ctx context.Context, videoID string) VideoInfo {
	f.calls++
	info := f.info
	info.VideoID = videoID
	return info
}

// instantBackoff retries without waiting so chain tests run fast.
func instantBackoff() BackoffPolicy {
	return BackoffPolicy{MaxAttempts: 3, BaseDelay: time.Microsecond}
}

// testRegistry builds a registry from an inline source list.
func testRegistry() *TrustRegistry {
	return NewTrustRegistry(SourceList{
		Tiers: map[string]TierConfig{
			"wire": {
				Score:   0.95,
				Domains: []string{"reuters.com"},
			},
			"press": {
				Score:      0.8,
				Categories: []string{"politics", "economy"},
				Domains:    []string{"nytimes.com", "*.example-press.com"},
			},
		},
		Denylist: []string{"fakesite.com"},
	})
}

func mkClaim(id, text string) Claim {
	return Claim{ID: id, Text: text, Category: "politics", Importance: "high"}
}

func mkEvidence(url, published string, trust, relevance float64) EvidenceCandidate {
	return EvidenceCandidate{
		Title:          fmt.Sprintf("article %s", url),
		URL:            url,
		Domain:         ExtractDomain(url),
		PublishedDate:  published,
		TrustScore:     trust,
		RelevanceScore: relevance,
		DateDiffDays:   -1,
	}
}
