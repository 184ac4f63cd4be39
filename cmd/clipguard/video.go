// cmd/clipguard/video.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// VideoMetadataFetcher resolves a video ID to its metadata. The publish
// date it returns anchors the evidence date reranking.
type VideoMetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) VideoInfo
}

// YouTubeFetcher fetches video metadata from the YouTube Data API v3.
type YouTubeFetcher struct {
	client *http.Client
	apiKey string
}

// NewYouTubeFetcher creates the production metadata fetcher.
func NewYouTubeFetcher(cfg *Config) *YouTubeFetcher {
	return &YouTubeFetcher{
		client: &http.Client{Timeout: cfg.SearchTimeout()},
		apiKey: cfg.YouTubeAPIKey,
	}
}

// Fetch returns the video's metadata. Failures return an empty
// VideoInfo rather than an error: the analysis still runs, it just
// loses the date anchor and falls back to the loose recency decay.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) VideoInfo {
	info := VideoInfo{VideoID: videoID}
	if f.apiKey == "" {
		Logger().Debug("No video API key, skipping metadata fetch for %s", videoID)
		return info
	}

	endpoint := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/videos?part=snippet&id=%s&key=%s",
		url.QueryEscape(videoID), url.QueryEscape(f.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return info
	}

	resp, err := f.client.Do(req)
	if err != nil {
		Logger().Warning("Video metadata fetch failed for %s: %v", videoID, err)
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Warning("Video metadata API returned status %s for %s", resp.Status, videoID)
		return info
	}

	var parsed struct {
		Items []struct {
			Snippet struct {
				Title        string `json:"title"`
				Description  string `json:"description"`
				ChannelTitle string `json:"channelTitle"`
				PublishedAt  string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Items) == 0 {
		Logger().Warning("Video metadata missing for %s: %v", videoID, err)
		return info
	}

	snippet := parsed.Items[0].Snippet
	info.Title = snippet.Title
	info.Description = snippet.Description
	info.ChannelTitle = snippet.ChannelTitle
	if t, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
		info.PublishedAt = t
	}
	return info
}
