// cmd/clipguard/transcript.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TranscriptRequest carries per-request acquisition state. The proxy
// flag flips once a proxy-specific failure is seen, so the remaining
// retries of this request degrade gracefully instead of abandoning the
// strategy.
type TranscriptRequest struct {
	VideoID       string
	ProxyDisabled bool
}

// TranscriptStrategy is one tier of the acquisition chain.
type TranscriptStrategy interface {
	Name() string
	Fetch(ctx context.Context, req *TranscriptRequest) (string, error)
}

// TranscriptChain walks an ordered list of strategies. A retryable
// failure is retried with backoff on the same strategy; a non-retryable
// one advances to the next tier immediately; exhausting retries also
// advances. An empty result from every tier is not an error, just an
// absent transcript.
type TranscriptChain struct {
	strategies []TranscriptStrategy
	backoff    BackoffPolicy
}

// NewTranscriptChain assembles the production chain:
// captions API through the proxy (when configured), captions API
// direct, external downloader captions, speech-to-text.
func NewTranscriptChain(cfg *Config) *TranscriptChain {
	captions := newCaptionsStrategy(cfg)

	var strategies []TranscriptStrategy
	if cfg.CaptionsProxyURL != "" {
		strategies = append(strategies, &proxyCaptions{captions})
	}
	strategies = append(strategies, captions)
	if cfg.SpeechToTextURL != "" {
		strategies = append(strategies, newDownloaderStrategy(cfg))
		strategies = append(strategies, newSpeechToTextStrategy(cfg))
	}

	return &TranscriptChain{
		strategies: strategies,
		backoff:    DefaultBackoffPolicy(),
	}
}

// NewTranscriptChainWith builds a chain from explicit strategies; used
// by tests and by callers that need a custom tier order.
func NewTranscriptChainWith(backoff BackoffPolicy, strategies ...TranscriptStrategy) *TranscriptChain {
	return &TranscriptChain{strategies: strategies, backoff: backoff}
}

// Acquire runs the chain and returns the first transcript any tier
// produces, or empty when every tier fails.
func (c *TranscriptChain) Acquire(ctx context.Context, videoID string) string {
	req := &TranscriptRequest{VideoID: videoID}

	for _, strategy := range c.strategies {
		var transcript string

		err := c.backoff.Do(ctx, func() error {
			text, err := strategy.Fetch(ctx, req)
			if err != nil {
				if IsProxyFailure(err) && !req.ProxyDisabled {
					Logger().Warning("Proxy failure on %s, disabling proxy for this request", strategy.Name())
					req.ProxyDisabled = true
				}
				return err
			}
			transcript = text
			return nil
		})

		if err == nil && strings.TrimSpace(transcript) != "" {
			Logger().Info("Transcript acquired via %s (%d chars)", strategy.Name(), len(transcript))
			return transcript
		}
		if ctx.Err() != nil {
			return ""
		}
		Logger().Warning("Transcript strategy %s failed: %v", strategy.Name(), err)
	}

	Logger().Warning("All transcript strategies exhausted for %s", videoID)
	return ""
}

// captionsStrategy fetches published captions from the timed-text
// endpoint and strips them down to plain text.
type captionsStrategy struct {
	client      *http.Client
	proxyClient *http.Client
	languages   []string
}

func newCaptionsStrategy(cfg *Config) *captionsStrategy {
	s := &captionsStrategy{
		client:    &http.Client{Timeout: cfg.TranscriptTimeout()},
		languages: []string{"ko", "en"},
	}

	if cfg.CaptionsProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.CaptionsProxyURL); err == nil {
			s.proxyClient = &http.Client{
				Timeout:   cfg.TranscriptTimeout(),
				Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			}
		} else {
			Logger().Warning("Invalid captions proxy URL: %v", err)
		}
	}
	return s
}

func (s *captionsStrategy) Name() string { return "captions-api" }

func (s *captionsStrategy) Fetch(ctx context.Context, req *TranscriptRequest) (string, error) {
	return s.fetch(ctx, req, false)
}

func (s *captionsStrategy) fetch(ctx context.Context, req *TranscriptRequest, viaProxy bool) (string, error) {
	client := s.client
	if viaProxy {
		if s.proxyClient == nil || req.ProxyDisabled {
			return "", NewNonRetryable(ErrorTypeTranscript, ErrProxyTunnel, "captions proxy unavailable", nil)
		}
		client = s.proxyClient
	}

	for _, lang := range s.languages {
		text, err := s.fetchLanguage(ctx, client, req.VideoID, lang, viaProxy)
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
	}
	return "", NewNonRetryable(ErrorTypeTranscript, ErrCaptionsMissing, "no captions found", nil)
}

func (s *captionsStrategy) fetchLanguage(ctx context.Context, client *http.Client, videoID, lang string, viaProxy bool) (string, error) {
	endpoint := fmt.Sprintf("https://video.google.com/timedtext?lang=%s&v=%s",
		url.QueryEscape(lang), url.QueryEscape(videoID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if viaProxy {
			return "", NewRetryable(ErrorTypeTranscript, ErrProxyTunnel, "captions proxy tunnel failed", err)
		}
		return "", NewRetryable(ErrorTypeTranscript, ErrCaptionsMissing, "captions request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewRetryable(ErrorTypeTranscript, ErrTranscriptRate, "captions endpoint rate limited", nil)
	case resp.StatusCode == http.StatusForbidden:
		return "", NewNonRetryable(ErrorTypeTranscript, ErrCaptionsDisabled, "captions disabled for this content", nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewRetryable(ErrorTypeTranscript, ErrCaptionsMissing,
			fmt.Sprintf("captions endpoint returned status %s", resp.Status), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseTimedText(body), nil
}

// parseTimedText flattens a timed-text XML document into plain text.
func parseTimedText(data []byte) string {
	var doc struct {
		Texts []struct {
			Value string `xml:",chardata"`
		} `xml:"text"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ""
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if v := strings.TrimSpace(t.Value); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// proxyCaptions is the proxy-first tier of the captions strategy.
type proxyCaptions struct {
	inner *captionsStrategy
}

func (p *proxyCaptions) Name() string { return "captions-api-proxy" }

func (p *proxyCaptions) Fetch(ctx context.Context, req *TranscriptRequest) (string, error) {
	return p.inner.fetch(ctx, req, true)
}

// downloaderStrategy asks the external media downloader service for the
// captions it extracted.
type downloaderStrategy struct {
	client  *http.Client
	baseURL string
}

func newDownloaderStrategy(cfg *Config) *downloaderStrategy {
	return &downloaderStrategy{
		client:  &http.Client{Timeout: cfg.TranscriptTimeout()},
		baseURL: strings.TrimSuffix(cfg.SpeechToTextURL, "/"),
	}
}

func (s *downloaderStrategy) Name() string { return "downloader-captions" }

func (s *downloaderStrategy) Fetch(ctx context.Context, req *TranscriptRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/captions?video_id=%s", s.baseURL, url.QueryEscape(req.VideoID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", NewRetryable(ErrorTypeTranscript, ErrCaptionsMissing, "downloader request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", NewNonRetryable(ErrorTypeTranscript, ErrCaptionsMissing, "downloader found no captions", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewRetryable(ErrorTypeTranscript, ErrTranscriptRate, "downloader rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewRetryable(ErrorTypeTranscript, ErrCaptionsMissing,
			fmt.Sprintf("downloader returned status %s", resp.Status), nil)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", NewRetryable(ErrorTypeTranscript, ErrCaptionsMissing, "failed to parse downloader response", err)
	}
	return parsed.Text, nil
}

// speechToTextStrategy is the last tier: full speech-to-text of the
// video audio through the external STT service.
type speechToTextStrategy struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newSpeechToTextStrategy(cfg *Config) *speechToTextStrategy {
	return &speechToTextStrategy{
		client:  &http.Client{Timeout: cfg.TranscriptTimeout()},
		baseURL: strings.TrimSuffix(cfg.SpeechToTextURL, "/"),
		apiKey:  cfg.SpeechToTextKey,
	}
}

func (s *speechToTextStrategy) Name() string { return "speech-to-text" }

func (s *speechToTextStrategy) Fetch(ctx context.Context, req *TranscriptRequest) (string, error) {
	if s.apiKey == "" {
		return "", NewNonRetryable(ErrorTypeTranscript, ErrSpeechToText, "speech-to-text not configured", nil)
	}

	reqBody, err := json.Marshal(map[string]string{"video_id": req.VideoID})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transcribe", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", NewRetryable(ErrorTypeTranscript, ErrSpeechToText, "speech-to-text request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewRetryable(ErrorTypeTranscript, ErrTranscriptRate, "speech-to-text rate limited", nil)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return "", NewNonRetryable(ErrorTypeTranscript, ErrSpeechToText, "no speech detected in audio", nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewRetryable(ErrorTypeTranscript, ErrSpeechToText,
			fmt.Sprintf("speech-to-text returned status %s", resp.Status), nil)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", NewRetryable(ErrorTypeTranscript, ErrSpeechToText, "failed to parse speech-to-text response", err)
	}
	return parsed.Text, nil
}
