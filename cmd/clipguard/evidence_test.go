// cmd/clipguard/evidence_test.go
package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter(minTrust float64) *EvidenceFilter {
	store := NewTrustStore("/nonexistent/sources.yml")
	store.current.Store(testRegistry())
	return NewEvidenceFilter(store, &Config{MinTrustScore: minTrust})
}

func TestFilterAndScoreDropsDenied(t *testing.T) {
	f := newTestFilter(0.1)
	claim := mkClaim("c1", "some claim")

	hits := []SearchHit{
		{Title: "good", URL: "https://reuters.com/a", Content: "text"},
		{Title: "bad", URL: "https://fakesite.com/a", Content: "text"},
	}

	got := f.FilterAndScore(hits, claim)
	require.Len(t, got, 1)
	assert.Equal(t, "reuters.com", got[0].Domain)
}

func TestFilterAndScoreTrustFloor(t *testing.T) {
	f := newTestFilter(0.5)
	claim := mkClaim("c1", "some claim")

	hits := []SearchHit{
		{Title: "trusted", URL: "https://reuters.com/a"},
		{Title: "unknown", URL: "https://randomblog.net/a"}, // default 0.3 < floor
	}

	got := f.FilterAndScore(hits, claim)
	require.Len(t, got, 1)
	assert.Equal(t, "trusted", got[0].Title)
}

func TestFilterAndScoreDefaults(t *testing.T) {
	f := newTestFilter(0.1)
	claim := mkClaim("c1", "some claim")

	long := strings.Repeat("x", 2*snippetLimit)
	hits := []SearchHit{{
		Title:   "hit",
		URL:     "https://reuters.com/2024/03/15/article",
		Content: "<p>" + long + "</p>",
	}}

	got := f.FilterAndScore(hits, claim)
	require.Len(t, got, 1)

	// Date recovered from the URL path, relevance defaulted, snippet
	// sanitized and truncated, date diff starts unknown.
	assert.Equal(t, "2024-03-15", got[0].PublishedDate)
	assert.Equal(t, 0.5, got[0].RelevanceScore)
	assert.LessOrEqual(t, len(got[0].Snippet), snippetLimit)
	assert.NotContains(t, got[0].Snippet, "<p>")
	assert.Equal(t, -1, got[0].DateDiffDays)
}

func TestFilterAndScoreOrdersByTrust(t *testing.T) {
	f := newTestFilter(0.1)
	claim := mkClaim("c1", "some claim")

	hits := []SearchHit{
		{Title: "unknown", URL: "https://randomblog.net/a"},
		{Title: "wire", URL: "https://reuters.com/a"},
		{Title: "press", URL: "https://nytimes.com/a"},
	}

	got := f.FilterAndScore(hits, claim)
	require.Len(t, got, 3)
	assert.Equal(t, "wire", got[0].Title)
	assert.Equal(t, "press", got[1].Title)
	assert.Equal(t, "unknown", got[2].Title)
}

func TestParseDateFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"dashed", "https://a.com/2024-03-15/story", "2024-03-15"},
		{"slashed", "https://a.com/2023/7/4/story", "2023-07-04"},
		{"compact", "https://a.com/article-20220101.html", "2022-01-01"},
		{"invalid month", "https://a.com/2024-13-15/story", ""},
		{"invalid day", "https://a.com/2024/12/40/story", ""},
		{"far future year", "https://a.com/2099-01-01/story", ""},
		{"no date", "https://a.com/story", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDateFromURL(tt.url))
		})
	}
}

func TestParsePublishedDate(t *testing.T) {
	for _, raw := range []string{
		"2024-03-15T10:30:00Z",
		"2024-03-15T10:30:00",
		"2024-03-15 10:30:00",
		"2024-03-15",
	} {
		_, ok := parsePublishedDate(raw)
		assert.True(t, ok, "should parse %q", raw)
	}

	_, ok := parsePublishedDate("March 15th, 2024 or thereabouts")
	assert.False(t, ok)
}
