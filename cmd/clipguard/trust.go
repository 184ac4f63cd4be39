// cmd/clipguard/trust.go
package main

import (
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v2"
)

// DefaultTrustScore is assigned to domains that appear on neither list.
const DefaultTrustScore = 0.3

// categoryMismatchPenalty is applied multiplicatively when a tier's
// declared categories do not include the claim's category.
const categoryMismatchPenalty = 0.7

// TierConfig describes one trust tier of the source list.
type TierConfig struct {
	Score       float64  `yaml:"score"`
	Description string   `yaml:"description"`
	Categories  []string `yaml:"categories"`
	Domains     []string `yaml:"domains"`
}

// SourceList is the on-disk shape of config/sources.yml.
type SourceList struct {
	Tiers    map[string]TierConfig `yaml:"tiers"`
	Denylist []string              `yaml:"denylist"`
}

// tierEntry is one compiled whitelist rule.
type tierEntry struct {
	tier    string
	domain  string
	pattern *regexp.Regexp // non-nil for wildcard rules
}

// TrustRegistry answers domain trust queries. It is immutable after
// construction, so concurrent readers need no locking; reloads swap a
// whole new registry into the TrustStore.
type TrustRegistry struct {
	tiers    map[string]TierConfig
	entries  []tierEntry
	denylist []string
}

// NewTrustRegistry builds a registry from a parsed source list.
func NewTrustRegistry(list SourceList) *TrustRegistry {
	r := &TrustRegistry{
		tiers:    list.Tiers,
		denylist: make([]string, 0, len(list.Denylist)),
	}

	for _, d := range list.Denylist {
		r.denylist = append(r.denylist, strings.ToLower(strings.TrimSpace(d)))
	}

	// Deterministic rule order: tiers sorted by name, domains in
	// declaration order.
	tierNames := make([]string, 0, len(list.Tiers))
	for name := range list.Tiers {
		tierNames = append(tierNames, name)
	}
	sort.Strings(tierNames)

	for _, name := range tierNames {
		for _, domain := range list.Tiers[name].Domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			entry := tierEntry{tier: name, domain: domain}
			if strings.Contains(domain, "*") {
				expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(domain), `\*`, ".*") + "$"
				if re, err := regexp.Compile(expr); err == nil {
					entry.pattern = re
				} else {
					Logger().Warning("Invalid wildcard domain %q in tier %s: %v", domain, name, err)
					continue
				}
			}
			r.entries = append(r.entries, entry)
		}
	}

	return r
}

// LoadTrustRegistry reads the YAML source list from disk. A missing or
// malformed file degrades to an empty registry (deny nothing, trust
// nothing above the default) instead of failing the pipeline.
func LoadTrustRegistry(path string) *TrustRegistry {
	data, err := os.ReadFile(path)
	if err != nil {
		Logger().Error("Failed to read source list %s: %v (registry degraded)", path, err)
		return NewTrustRegistry(SourceList{})
	}

	var list SourceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		Logger().Error("Failed to parse source list %s: %v (registry degraded)", path, err)
		return NewTrustRegistry(SourceList{})
	}

	r := NewTrustRegistry(list)
	Logger().Info("Trust registry loaded: %d whitelist rules, %d denied domains",
		len(r.entries), len(r.denylist))
	return r
}

// ExtractDomain pulls the lowercase host out of a URL, dropping any
// leading www. Returns empty string for unparseable input.
func ExtractDomain(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	domain := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(domain, "www.")
}

// IsDenied reports whether the URL's domain is on the denylist, either
// exactly or as a subdomain of a denied domain.
func (r *TrustRegistry) IsDenied(rawURL string) bool {
	domain := ExtractDomain(rawURL)
	if domain == "" {
		return false
	}
	for _, denied := range r.denylist {
		if domain == denied || strings.HasSuffix(domain, "."+denied) {
			return true
		}
	}
	return false
}

// DomainTier returns the tier name the URL's domain belongs to, or ""
// when the domain is not whitelisted. Match priority: exact, wildcard,
// registered-domain suffix.
func (r *TrustRegistry) DomainTier(rawURL string) string {
	domain := ExtractDomain(rawURL)
	if domain == "" {
		return ""
	}

	for _, entry := range r.entries {
		if entry.pattern == nil && domain == entry.domain {
			return entry.tier
		}
	}
	for _, entry := range r.entries {
		if entry.pattern != nil && entry.pattern.MatchString(domain) {
			return entry.tier
		}
	}
	for _, entry := range r.entries {
		if entry.pattern == nil && strings.HasSuffix(domain, "."+entry.domain) {
			return entry.tier
		}
	}
	return ""
}

// TrustScore computes the [0,1] trust score for a URL against a claim
// category. Denylisted domains always score 0.0 regardless of any
// whitelist tier; unknown domains get the conservative default.
func (r *TrustRegistry) TrustScore(rawURL, category string) float64 {
	if r.IsDenied(rawURL) {
		return 0.0
	}

	tier := r.DomainTier(rawURL)
	if tier == "" {
		return DefaultTrustScore
	}

	cfg := r.tiers[tier]
	score := cfg.Score
	if score <= 0 {
		score = 0.5
	}

	if category != "" && len(cfg.Categories) > 0 && !containsString(cfg.Categories, category) {
		score *= categoryMismatchPenalty
	}
	return score
}

// TierCount returns the number of configured trust tiers.
func (r *TrustRegistry) TierCount() int {
	return len(r.tiers)
}

// DenyCount returns the number of denylisted domains.
func (r *TrustRegistry) DenyCount() int {
	return len(r.denylist)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TrustStore holds the current registry behind an atomic pointer so the
// cron reloader can swap it without locking the request hot path.
type TrustStore struct {
	path    string
	current atomic.Pointer[TrustRegistry]
}

// NewTrustStore loads the initial registry from path.
func NewTrustStore(path string) *TrustStore {
	s := &TrustStore{path: path}
	s.current.Store(LoadTrustRegistry(path))
	return s
}

// Registry returns the current immutable registry snapshot.
func (s *TrustStore) Registry() *TrustRegistry {
	return s.current.Load()
}

// Reload re-reads the source list and swaps in the fresh registry.
func (s *TrustStore) Reload() {
	s.current.Store(LoadTrustRegistry(s.path))
}
