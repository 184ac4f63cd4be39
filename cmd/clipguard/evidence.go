// cmd/clipguard/evidence.go
package main

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// snippetLimit caps how much of a hit's content is kept as evidence.
const snippetLimit = 500

// EvidenceFilter turns raw search hits into scored evidence candidates:
// denied domains are dropped, a trust score is attached, and a publish
// date is recovered from the URL path when the hit carries none.
type EvidenceFilter struct {
	store     *TrustStore
	minTrust  float64
	sanitizer *bluemonday.Policy
	client    *http.Client
}

// NewEvidenceFilter creates a filter bound to the trust store.
func NewEvidenceFilter(store *TrustStore, cfg *Config) *EvidenceFilter {
	return &EvidenceFilter{
		store:     store,
		minTrust:  cfg.MinTrustScore,
		sanitizer: bluemonday.StrictPolicy(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FilterAndScore converts hits into evidence candidates for one claim.
// The result is ordered by trust score descending; the ranker imposes
// the final order later.
func (f *EvidenceFilter) FilterAndScore(hits []SearchHit, claim Claim) []EvidenceCandidate {
	registry := f.store.Registry()
	candidates := make([]EvidenceCandidate, 0, len(hits))

	for _, hit := range hits {
		if registry.IsDenied(hit.URL) {
			Logger().Debug("Dropping denylisted source: %s", hit.URL)
			continue
		}

		trust := registry.TrustScore(hit.URL, claim.Category)
		if trust < f.minTrust {
			Logger().Debug("Dropping low-trust source (%.2f): %s", trust, hit.URL)
			continue
		}

		published := hit.PublishedDate
		if published == "" {
			published = parseDateFromURL(hit.URL)
		}

		relevance := hit.Score
		if relevance <= 0 {
			relevance = 0.5
		}

		candidates = append(candidates, EvidenceCandidate{
			Title:          hit.Title,
			URL:            hit.URL,
			Domain:         ExtractDomain(hit.URL),
			Snippet:        truncateText(f.sanitizer.Sanitize(hit.Content), snippetLimit),
			PublishedDate:  published,
			TrustScore:     trust,
			RelevanceScore: relevance,
			DateDiffDays:   -1,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TrustScore > candidates[j].TrustScore
	})

	Logger().Info("Evidence filter: %d hits -> %d candidates", len(hits), len(candidates))
	return candidates
}

// EnrichDates fetches pages of candidates that still lack a publish
// date and pulls one out of the page metadata. Best effort: failures
// leave the date empty.
func (f *EvidenceFilter) EnrichDates(ctx context.Context, candidates []EvidenceCandidate) {
	for i := range candidates {
		if candidates[i].PublishedDate != "" {
			continue
		}
		if date := f.fetchPageDate(ctx, candidates[i].URL); date != "" {
			candidates[i].PublishedDate = date
		}
	}
}

// fetchPageDate scrapes common publish-date metadata from a page.
func (f *EvidenceFilter) fetchPageDate(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	selectors := []struct{ sel, attr string }{
		{`meta[property="article:published_time"]`, "content"},
		{`meta[name="date"]`, "content"},
		{`meta[itemprop="datePublished"]`, "content"},
		{`time[datetime]`, "datetime"},
	}
	for _, s := range selectors {
		if val, ok := doc.Find(s.sel).First().Attr(s.attr); ok && val != "" {
			if _, parsed := parsePublishedDate(val); parsed {
				return val
			}
		}
	}
	return ""
}

var urlDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(20\d{2})-(\d{2})-(\d{2})`),
	regexp.MustCompile(`(20\d{2})/(\d{1,2})/(\d{1,2})`),
	regexp.MustCompile(`(20\d{2})(\d{2})(\d{2})`),
}

// parseDateFromURL recovers a publish date from calendar patterns in a
// URL path. Month and day ranges are validated; failure yields an empty
// string, never an error.
func parseDateFromURL(rawURL string) string {
	for _, pattern := range urlDatePatterns {
		m := pattern.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}

		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		if year > time.Now().Year()+1 {
			continue
		}

		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}
	return ""
}

var publishedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

// parsePublishedDate parses the loose date strings that search hits and
// page metadata carry.
func parsePublishedDate(raw string) (time.Time, bool) {
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
