// cmd/clipguard/pipeline.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// TextPipeline is the evidence-based fact-check track: it fans the
// claims out to workers, verifies each against retrieved evidence, and
// rolls the verdicts up into one modality result.
type TextPipeline struct {
	oracle   JudgmentOracle
	searcher WebSearcher
	filter   *EvidenceFilter
	ranker   *EvidenceRanker
	verifier *ClaimVerifier
	workers  int
}

// NewTextPipeline wires the text track from its collaborators.
func NewTextPipeline(oracle JudgmentOracle, searcher WebSearcher, filter *EvidenceFilter, ranker *EvidenceRanker, verifier *ClaimVerifier, cfg *Config) *TextPipeline {
	workers := cfg.ClaimWorkers
	if workers <= 0 {
		workers = 5
	}
	return &TextPipeline{
		oracle:   oracle,
		searcher: searcher,
		filter:   filter,
		ranker:   ranker,
		verifier: verifier,
		workers:  workers,
	}
}

// Run verifies every claim concurrently, bounded by the worker count,
// and preserves input order in the returned verdicts. A cancelled
// context is the only fatal outcome; per-claim failures resolve to
// insufficient_evidence inside the verifier.
func (p *TextPipeline) Run(ctx context.Context, claims []Claim, video VideoInfo) ([]ClaimVerdict, ModalityResult, error) {
	verdicts := make([]ClaimVerdict, len(claims))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c Claim) {
			defer wg.Done()
			defer RecoverFromPanic("text-pipeline")

			sem <- struct{}{}
			defer func() { <-sem }()

			verdicts[idx] = p.verifyClaim(ctx, c, video)
		}(i, claim)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, ModalityResult{}, err
	}

	// A worker that panicked leaves its slot zero-valued; fill it in as
	// an inconclusive verdict so aggregation still joins by claim ID.
	for i, claim := range claims {
		if verdicts[i].ClaimID == "" {
			verdicts[i] = ClaimVerdict{
				ClaimID:   claim.ID,
				ClaimText: claim.Text,
				Category:  claim.Category,
				Status:    VerdictInsufficient,
				Reason:    "verification did not complete",
			}
		}
	}

	return verdicts, rollUpVerdicts(verdicts), nil
}

// verifyClaim runs the full evidence path for one claim: query build,
// search, filter, date enrichment, rank, judge.
func (p *TextPipeline) verifyClaim(ctx context.Context, claim Claim, video VideoInfo) ClaimVerdict {
	query, err := p.oracle.BuildQuery(ctx, claim.Text)
	if err != nil || query == "" {
		Logger().Warning("Query build failed for claim %s, using claim text: %v", claim.ID, err)
		query = claim.Text + " 팩트체크"
	}

	hits, err := p.searcher.Search(ctx, query)
	if err != nil {
		Logger().Warning("Search failed for claim %s: %v", claim.ID, err)
	}

	candidates := p.filter.FilterAndScore(hits, claim)
	p.filter.EnrichDates(ctx, candidates)
	evidence := p.ranker.RankAndSelect(ctx, claim, candidates, video.PublishedAt)

	return p.verifier.Verify(ctx, claim, evidence)
}

// rollUpVerdicts condenses the per-claim verdicts into the text
// modality summary. Half or more refuted claims marks the video
// suspicious.
func rollUpVerdicts(verdicts []ClaimVerdict) ModalityResult {
	fake := 0
	var concerns []string
	for _, v := range verdicts {
		if v.IsFake() {
			fake++
			if len(concerns) < 3 {
				concerns = append(concerns, v.ClaimText)
			}
		}
	}

	summary := fmt.Sprintf("%d of %d claims verified false", fake, len(verdicts))
	if len(verdicts) > 0 && float64(fake)/float64(len(verdicts)) >= 0.5 {
		summary = "suspicious: " + summary
	}
	if len(concerns) > 0 {
		summary += "; key concerns: " + strings.Join(concerns, "; ")
	}

	return ModalityResult{
		Modality: "text",
		Summary:  summary,
		Status:   ModalitySuccess,
	}
}

// AudioPipeline checks the spoken content against the title for
// clickbait distortion. It degrades to an error sentinel, never an
// aborted request.
type AudioPipeline struct {
	oracle JudgmentOracle
}

// NewAudioPipeline wires the audio track.
func NewAudioPipeline(oracle JudgmentOracle) *AudioPipeline {
	return &AudioPipeline{oracle: oracle}
}

// Run produces the audio modality result. The clickbait note is fanned
// out to every claim so aggregation can join it per claim.
func (p *AudioPipeline) Run(ctx context.Context, title, transcript string, claims []Claim) (result ModalityResult) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("Audio pipeline panic: %v", r)
			result = ErrorModalityResult("audio", fmt.Errorf("audio analysis panic: %v", r))
		}
	}()

	if strings.TrimSpace(transcript) == "" {
		return ModalityResult{
			Modality: "audio",
			Summary:  "no transcript available for audio analysis",
			Status:   ModalitySuccess,
		}
	}

	note, err := p.oracle.CheckClickbait(ctx, title, transcript)
	if err != nil {
		Logger().Error("Clickbait check failed: %v", err)
		return ErrorModalityResult("audio", err)
	}

	notes := make([]ModalityNote, 0, len(claims))
	for _, c := range claims {
		notes = append(notes, ModalityNote{ClaimID: c.ID, Note: note})
	}

	return ModalityResult{
		Modality: "audio",
		Summary:  note,
		Notes:    notes,
		Status:   ModalitySuccess,
	}
}

// ImagePipeline asks the external frame analyzer whether the video's
// imagery is provocative or manipulated. The analyzer lives behind an
// HTTP boundary; any failure degrades to an error sentinel.
type ImagePipeline struct {
	client  *http.Client
	baseURL string
}

// NewImagePipeline wires the image track. An empty analyzer URL leaves
// the pipeline disabled.
func NewImagePipeline(cfg *Config) *ImagePipeline {
	return &ImagePipeline{
		client:  &http.Client{Timeout: cfg.TranscriptTimeout()},
		baseURL: strings.TrimSuffix(cfg.ImageAnalyzerURL, "/"),
	}
}

// Run produces the image modality result.
func (p *ImagePipeline) Run(ctx context.Context, videoID string, claims []Claim) (result ModalityResult) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("Image pipeline panic: %v", r)
			result = ErrorModalityResult("image", fmt.Errorf("image analysis panic: %v", r))
		}
	}()

	if p.baseURL == "" {
		return ModalityResult{
			Modality: "image",
			Summary:  "image analysis not configured",
			Status:   ModalitySuccess,
		}
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"video_id": videoID,
		"claims":   claims,
	})
	if err != nil {
		return ErrorModalityResult("image", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/analyze", bytes.NewReader(reqBody))
	if err != nil {
		return ErrorModalityResult("image", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return ErrorModalityResult("image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrorModalityResult("image",
			fmt.Errorf("image analyzer returned status %s", resp.Status))
	}

	var parsed struct {
		Summary string         `json:"analysis_summary"`
		Notes   []ModalityNote `json:"notes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ErrorModalityResult("image", err)
	}

	return ModalityResult{
		Modality: "image",
		Summary:  parsed.Summary,
		Notes:    parsed.Notes,
		Status:   ModalitySuccess,
	}
}
