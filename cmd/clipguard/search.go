// cmd/clipguard/search.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// WebSearcher retrieves raw evidence hits for one search query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// TavilySearcher is the primary web search collaborator, a JSON HTTP
// client for the Tavily search API.
type TavilySearcher struct {
	client     *http.Client
	apiURL     string
	apiKey     string
	maxResults int
	limiter    *rate.Limiter
}

// NewTavilySearcher creates the primary searcher.
func NewTavilySearcher(cfg *Config) *TavilySearcher {
	return &TavilySearcher{
		client:     &http.Client{Timeout: cfg.SearchTimeout()},
		apiURL:     cfg.SearchAPIURL,
		apiKey:     cfg.SearchAPIKey,
		maxResults: cfg.MaxSearchResults,
		limiter:    rate.NewLimiter(rate.Limit(cfg.SearchRateLimit), 1),
	}
}

// Search runs one advanced-depth search and returns the raw hits.
func (s *TavilySearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"api_key":             s.apiKey,
		"query":               query,
		"search_depth":        "advanced",
		"max_results":         s.maxResults,
		"include_answer":      false,
		"include_raw_content": false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewRetryable(ErrorTypeSearch, ErrSearchRateLimit, "search API rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall,
			fmt.Sprintf("search API returned status %s", resp.Status), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title         string  `json:"title"`
			URL           string  `json:"url"`
			Content       string  `json:"content"`
			PublishedDate string  `json:"published_date"`
			Score         float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall, "failed to parse search response", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, SearchHit{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}

	Logger().Debug("Search %q returned %d hits", query, len(hits))
	return hits, nil
}

// NewsFeedSearcher is the secondary retriever: it queries the Google
// News RSS search feed and parses it with gofeed. Used when the primary
// searcher fails or comes back empty.
type NewsFeedSearcher struct {
	parser     *gofeed.Parser
	client     *http.Client
	maxResults int
}

// NewNewsFeedSearcher creates the RSS fallback searcher.
func NewNewsFeedSearcher(cfg *Config) *NewsFeedSearcher {
	return &NewsFeedSearcher{
		parser:     gofeed.NewParser(),
		client:     &http.Client{Timeout: cfg.SearchTimeout()},
		maxResults: cfg.MaxSearchResults,
	}
}

// Search fetches the news search feed for the query.
func (s *NewsFeedSearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	feedURL := "https://news.google.com/rss/search?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall, "news feed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall,
			fmt.Sprintf("news feed returned status %s", resp.Status), nil)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, NewError(ErrorTypeSearch, ErrSearchCall, "failed to parse news feed", err)
	}

	var hits []SearchHit
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		hit := SearchHit{
			Title:   item.Title,
			URL:     item.Link,
			Content: item.Description,
		}
		if item.PublishedParsed != nil {
			hit.PublishedDate = item.PublishedParsed.Format(time.RFC3339)
		}
		hits = append(hits, hit)
		if len(hits) >= s.maxResults {
			break
		}
	}
	return hits, nil
}

// FallbackSearcher tries the primary searcher first and falls back to
// the secondary when the primary errors or returns nothing. A fallback
// failure is not an error; evidence scarcity is resolved downstream as
// insufficient_evidence.
type FallbackSearcher struct {
	primary   WebSearcher
	secondary WebSearcher
}

// NewFallbackSearcher chains two searchers.
func NewFallbackSearcher(primary, secondary WebSearcher) *FallbackSearcher {
	return &FallbackSearcher{primary: primary, secondary: secondary}
}

// Search implements WebSearcher.
func (s *FallbackSearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	hits, err := s.primary.Search(ctx, query)
	if err == nil && len(hits) > 0 {
		return hits, nil
	}
	if err != nil {
		Logger().Warning("Primary search failed for %q: %v, trying news feed", query, err)
	}
	if s.secondary == nil {
		return hits, err
	}

	fallbackHits, fbErr := s.secondary.Search(ctx, query)
	if fbErr != nil {
		Logger().Warning("Fallback search failed for %q: %v", query, fbErr)
		return hits, err
	}
	return fallbackHits, nil
}

// CachedSearcher memoizes search results per query for the configured
// TTL, so repeated claims in one process do not burn search quota.
type CachedSearcher struct {
	inner WebSearcher
	cache *Cache
}

// NewCachedSearcher wraps a searcher with the TTL cache.
func NewCachedSearcher(inner WebSearcher, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		inner: inner,
		cache: NewCache(ttl, 512),
	}
}

// Search implements WebSearcher.
func (s *CachedSearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	if cached, ok := s.cache.Get(query); ok {
		if hits, ok := cached.([]SearchHit); ok {
			return hits, nil
		}
	}

	hits, err := s.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Set(query, hits)
	return hits, nil
}
